// Package timeline drives the phases of a single trial independently of how
// the trial is drawn.
//
// A Machine is advanced by calling Tick once per display frame with the
// current run time and the keys pressed since the previous frame:
//
//	INITIAL_FIXATION -> CUE -> POST_CUE_FIXATION -> RESPONSE_WINDOW
//	    -> [TRAILING_FIXATION] -> SCORING -> DONE
//
// Each Tick reports whether the trial stays in its phase (Continue), has
// moved to the next one (Advance), or was aborted with the escape key
// (Abort). The machine moves at most one phase per Tick, so every phase is
// shown for at least one frame. A zero initial or trailing fixation is
// skipped.
//
// Fixation durations are drawn per trial by a Sampler.
package timeline
