package trial

import "time"

// EscapeKey is reserved for aborting a session.
const EscapeKey = "escape"

// KeyMap maps target directions to the keys of a response device.
type KeyMap struct {
	Left  string `yaml:"left" json:"left"`
	Right string `yaml:"right" json:"right"`
}

// KeyboardKeys is the mapping for the arrow keys of a keyboard.
var KeyboardKeys = KeyMap{Left: "left", Right: "right"}

// ButtonBoxKeys is the mapping for the scanner button box.
var ButtonBoxKeys = KeyMap{Left: "1", Right: "6"}

// KeyFor returns the key that answers the given direction.
func (k KeyMap) KeyFor(d Direction) string {
	if d == Left {
		return k.Left
	}
	return k.Right
}

// Admissible returns the keys accepted during a response window: both
// response keys plus escape.
func (k KeyMap) Admissible() []string {
	return []string{k.Left, k.Right, EscapeKey}
}

// Response is what the subject did during a response window.
type Response struct {
	// Pressed is false when the window expired without a key press.
	Pressed bool
	Key     string
	// RT is the time from window onset to the key press.
	RT time.Duration
}

// Outcome is the scored form of a Response.
type Outcome struct {
	Response string
	Correct  Correctness
	RT       Seconds
}

// Score classifies a response against the nominal target direction.
//
// No key press yields a miss with rt "none". A key press is correct only when
// it is the key the device maps to the target direction; any other key
// (including escape) is incorrect.
func Score(direction Direction, resp Response, keys KeyMap) Outcome {
	if !resp.Pressed {
		return Outcome{Response: MissResponse, Correct: Miss}
	}
	out := Outcome{Response: resp.Key, Correct: Incorrect, RT: Sec(resp.RT.Seconds())}
	if resp.Key == keys.KeyFor(direction) {
		out.Correct = Correct
	}
	return out
}

// Apply copies a scored outcome into the record.
func (r *Record) Apply(o Outcome) {
	r.Response = o.Response
	r.Correct = o.Correct
	r.RT = o.RT
}
