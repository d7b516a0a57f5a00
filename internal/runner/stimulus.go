package runner

// Component is one drawable part of a stimulus.
type Component struct {
	Name string
	// Geometry is the raw coordinate string from the condition pool, if any.
	Geometry string
	// Text is set for text screens.
	Text string
}

// Stimulus is either a Single component or a Group of components drawn
// together. The set of implementations is closed.
type Stimulus interface {
	// Name identifies the stimulus in logs and display histories.
	Name() string
	Components() []Component
	isStimulus()
}

// Single is a stimulus made of one component.
type Single struct {
	Component
}

func (s Single) Name() string            { return s.Component.Name }
func (s Single) Components() []Component { return []Component{s.Component} }
func (Single) isStimulus()               {}

// Group is a stimulus made of several components, e.g. the eight lines of a
// double asterisk cue or the five arrows of a flanker sequence.
type Group struct {
	Label string
	Parts []Component
}

func (g Group) Name() string            { return g.Label }
func (g Group) Components() []Component { return g.Parts }
func (Group) isStimulus()               {}

var (
	cueComponents = []string{
		"cue1_vertical", "cue1_horizontal", "cue1_rightleft", "cue1_leftright",
		"cue2_vertical", "cue2_horizontal", "cue2_rightleft", "cue2_leftright",
	}
	arrowComponents = []string{"flanker1", "flanker2", "target", "flanker3", "flanker4"}
)

// Fixation is the central cross shown throughout a trial.
func Fixation() Stimulus {
	return Single{Component{Name: "fixation_cross"}}
}

// CueFor returns the asterisk cue of an entry.
func CueFor(e Entry) Stimulus {
	return group("cue", cueComponents, e)
}

// ArrowsFor returns the flanker-and-target sequence of an entry.
func ArrowsFor(e Entry) Stimulus {
	return group("arrows", arrowComponents, e)
}

// TextScreen returns a full-screen message.
func TextScreen(name, text string) Stimulus {
	return Single{Component{Name: name, Text: text}}
}

func group(label string, names []string, e Entry) Group {
	parts := make([]Component, len(names))
	for i, n := range names {
		parts[i] = Component{Name: n, Geometry: e.Geometry[n]}
	}
	return Group{Label: label, Parts: parts}
}
