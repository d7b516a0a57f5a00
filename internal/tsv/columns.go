package tsv

import (
	"fmt"
	"strconv"

	"github.com/roach88/mant/internal/trial"
)

// Column names shared by all variants.
const (
	ColCueLocation      = "cue_location"
	ColSequenceLocation = "sequence_location"
	ColCueType          = "cue_type"
	ColTargetCongruent  = "target_congruent"
	ColTargetDirection  = "target_direction"
	ColResponse         = "response"
	ColCorrect          = "correct"
	ColRT               = "rt"
	ColPreCueJitter     = "pre_cue_jitter"
	ColPostCueJitter    = "post_cue_jitter"
	ColCueOnset         = "cue_onset"
	ColTargetOnset      = "target_onset"
	ColResponseOnset    = "response_onset"
	ColSubject          = "subject"
	ColBlock            = "block"
	ColTrial            = "trial"
)

// Columns is an ordered list of column names.
type Columns []string

// BehaviouralColumns is the beh row of the keyboard and EEG variants.
var BehaviouralColumns = Columns{
	ColCueLocation,
	ColSequenceLocation,
	ColCueType,
	ColTargetCongruent,
	ColTargetDirection,
	ColResponse,
	ColCorrect,
	ColRT,
}

// ScannerColumns is the beh row of the fMRI variant: jitter values first,
// then the behavioural columns.
var ScannerColumns = append(Columns{ColPreCueJitter, ColPostCueJitter}, BehaviouralColumns...)

// OnsetColumns is the onsets row of the fMRI variant.
var OnsetColumns = Columns{ColCueOnset, ColTargetOnset, ColResponseOnset}

// SessionColumns is what a concatenated session file carries: the
// behavioural columns plus block and trial bookkeeping.
var SessionColumns = append(append(Columns{}, BehaviouralColumns...), ColBlock, ColTrial)

// field renders one column of a record.
func field(r trial.Record, col string) (string, error) {
	switch col {
	case ColCueLocation:
		return r.CueLocation, nil
	case ColSequenceLocation:
		return r.SequenceLocation, nil
	case ColCueType:
		return r.CueType.String(), nil
	case ColTargetCongruent:
		return r.Congruency.String(), nil
	case ColTargetDirection:
		return string(r.Direction), nil
	case ColResponse:
		return r.Response, nil
	case ColCorrect:
		return strconv.Itoa(int(r.Correct)), nil
	case ColRT:
		return r.RT.String(), nil
	case ColPreCueJitter:
		return r.PreCueJitter.String(), nil
	case ColPostCueJitter:
		return r.PostCueJitter.String(), nil
	case ColCueOnset:
		return r.Onsets.Cue.String(), nil
	case ColTargetOnset:
		return r.Onsets.Target.String(), nil
	case ColResponseOnset:
		return r.Onsets.Response.String(), nil
	case ColSubject:
		return r.Subject, nil
	case ColBlock:
		return strconv.Itoa(r.Block), nil
	case ColTrial:
		return strconv.Itoa(r.Index), nil
	}
	return "", fmt.Errorf("unknown column %q", col)
}

// setField parses one cell into the record.
func setField(r *trial.Record, col, value string) error {
	var err error
	switch col {
	case ColCueLocation:
		r.CueLocation = value
	case ColSequenceLocation:
		r.SequenceLocation = value
	case ColCueType:
		r.CueType, err = trial.ParseCueType(value)
	case ColTargetCongruent:
		r.Congruency, err = trial.ParseCongruency(value)
	case ColTargetDirection:
		r.Direction, err = trial.ParseDirection(value)
	case ColResponse:
		r.Response = value
	case ColCorrect:
		r.Correct, err = trial.ParseCorrectness(value)
	case ColRT:
		r.RT, err = trial.ParseSeconds(value)
	case ColPreCueJitter:
		r.PreCueJitter, err = trial.ParseSeconds(value)
	case ColPostCueJitter:
		r.PostCueJitter, err = trial.ParseSeconds(value)
	case ColCueOnset:
		r.Onsets.Cue, err = trial.ParseSeconds(value)
	case ColTargetOnset:
		r.Onsets.Target, err = trial.ParseSeconds(value)
	case ColResponseOnset:
		r.Onsets.Response, err = trial.ParseSeconds(value)
	case ColSubject:
		r.Subject = value
	case ColBlock:
		r.Block, err = strconv.Atoi(value)
	case ColTrial:
		r.Index, err = strconv.Atoi(value)
	}
	return err
}
