package trial

import (
	"fmt"
	"strings"
)

// Condition is a (cue type, congruency) cell of the experimental design.
type Condition struct {
	CueType    CueType
	Congruency Congruency
}

// Label returns the abbreviated name, e.g. "VC" for valid cue, congruent
// target.
func (c Condition) Label() string {
	return c.CueType.Short() + c.Congruency.Short()
}

// Name returns the long, human-readable name of the condition.
func (c Condition) Name() string {
	var cue string
	switch c.CueType {
	case CueValid:
		cue = "Valid cue"
	case CueInvalid:
		cue = "Invalid cue"
	case CueDouble:
		cue = "Double cue"
	default:
		cue = "Unknown cue"
	}
	var target string
	switch c.Congruency {
	case Congruent:
		target = "congruent target"
	case Incongruent:
		target = "incongruent target"
	default:
		target = "unknown target"
	}
	return cue + ", " + target
}

// ParseLabel parses an abbreviated condition label such as "DI".
func ParseLabel(label string) (Condition, error) {
	l := strings.ToUpper(strings.TrimSpace(label))
	if len(l) != 2 {
		return Condition{}, fmt.Errorf("invalid condition label %q", label)
	}
	var c Condition
	switch l[0] {
	case 'V':
		c.CueType = CueValid
	case 'I':
		c.CueType = CueInvalid
	case 'D':
		c.CueType = CueDouble
	default:
		return Condition{}, fmt.Errorf("invalid condition label %q", label)
	}
	switch l[1] {
	case 'C':
		c.Congruency = Congruent
	case 'I':
		c.Congruency = Incongruent
	default:
		return Condition{}, fmt.Errorf("invalid condition label %q", label)
	}
	return c, nil
}

// Design is the ordered list of conditions an experiment presents.
type Design []Condition

// NewDesign crosses the given cue types with congruent and incongruent
// targets, cue-major, congruent first.
func NewDesign(cues ...CueType) Design {
	d := make(Design, 0, 2*len(cues))
	for _, cue := range cues {
		d = append(d,
			Condition{CueType: cue, Congruency: Congruent},
			Condition{CueType: cue, Congruency: Incongruent},
		)
	}
	return d
}

// FullDesign is the 3x2 design: VC, VI, IC, II, DC, DI.
func FullDesign() Design {
	return NewDesign(CueValid, CueInvalid, CueDouble)
}

// ReducedDesign omits invalid cues: VC, VI, DC, DI.
func ReducedDesign() Design {
	return NewDesign(CueValid, CueDouble)
}

// Labels returns the abbreviated labels in design order.
func (d Design) Labels() []string {
	labels := make([]string, len(d))
	for i, c := range d {
		labels[i] = c.Label()
	}
	return labels
}

// Names returns the long names in design order.
func (d Design) Names() []string {
	names := make([]string, len(d))
	for i, c := range d {
		names[i] = c.Name()
	}
	return names
}

// Index returns the position of c in the design, or -1.
func (d Design) Index(c Condition) int {
	for i, dc := range d {
		if dc == c {
			return i
		}
	}
	return -1
}

// CueTypes returns the distinct cue types of the design in order.
func (d Design) CueTypes() []CueType {
	var cues []CueType
	seen := map[CueType]bool{}
	for _, c := range d {
		if !seen[c.CueType] {
			seen[c.CueType] = true
			cues = append(cues, c.CueType)
		}
	}
	return cues
}
