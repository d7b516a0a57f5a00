// Package trial defines the mANT trial record and the rules for scoring a
// subject's response.
//
// A Record is created once per trial by the runner and never mutated
// afterwards. Its categorical fields use the same spellings that appear in the
// persisted TSV files:
//
//   - cue_type: "spatial valid", "spatial invalid", "double"
//   - target_congruent: "yes", "no"
//   - target_direction: "left", "right"
//   - response: a key name, or "miss"
//   - correct: 1 (correct), 0 (incorrect), -1 (miss)
//   - rt: seconds, or the sentinel "none"
//
// Conditions are the (cue type, congruency) pairs that the analysis groups
// trials by. A Design lists the conditions an experiment variant presents:
// six for the full 3x2 design, four when invalid cues are omitted.
package trial
