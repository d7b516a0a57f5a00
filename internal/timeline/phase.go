package timeline

// Phase is a stage of a trial.
type Phase int

const (
	InitialFixation Phase = iota
	Cue
	PostCueFixation
	ResponseWindow
	TrailingFixation
	Scoring
	Done
)

var phaseNames = [...]string{
	InitialFixation:  "INITIAL_FIXATION",
	Cue:              "CUE",
	PostCueFixation:  "POST_CUE_FIXATION",
	ResponseWindow:   "RESPONSE_WINDOW",
	TrailingFixation: "TRAILING_FIXATION",
	Scoring:          "SCORING",
	Done:             "DONE",
}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "UNKNOWN"
	}
	return phaseNames[p]
}

// Verdict is the result of a Tick.
type Verdict int

const (
	// Continue keeps the current phase.
	Continue Verdict = iota
	// Advance reports that the machine entered a new phase on this tick.
	Advance
	// Abort reports that escape was pressed in the response window. The
	// trial is scored and the machine is done.
	Abort
)

func (v Verdict) String() string {
	switch v {
	case Continue:
		return "continue"
	case Advance:
		return "advance"
	case Abort:
		return "abort"
	}
	return "unknown"
}
