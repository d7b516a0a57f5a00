package runner

import (
	"errors"
	"fmt"
	"time"
)

// Display presents stimuli one frame at a time.
type Display interface {
	// Draw replaces what the next frame shows.
	Draw(stimuli ...Stimulus)
	// Flip presents the frame and returns its time since the display opened.
	Flip() (time.Duration, error)
	Close() error
}

// Opener acquires a display.
type Opener func() (Display, error)

// WithDisplay opens a display, hands it to fn and closes it when fn returns,
// whether or not fn failed.
func WithDisplay(open Opener, fn func(Display) error) (err error) {
	d, err := open()
	if err != nil {
		return fmt.Errorf("open display: %w", err)
	}
	defer func() {
		if cerr := d.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("close display: %w", cerr))
		}
	}()
	return fn(d)
}

// DrawCall is one Draw recorded by a Headless display.
type DrawCall struct {
	At    time.Duration
	Names []string
}

// Headless is a display with a virtual clock: every Flip advances time by
// one frame without waiting. It records the Draw calls it receives.
type Headless struct {
	frame  time.Duration
	now    time.Duration
	flips  int
	draws  []DrawCall
	closed bool
}

// NewHeadless returns a headless display refreshing every frame.
func NewHeadless(frame time.Duration) *Headless {
	return &Headless{frame: frame}
}

// OpenHeadless returns an Opener for a headless display with the given
// frame duration.
func OpenHeadless(frame time.Duration) Opener {
	return func() (Display, error) {
		if frame <= 0 {
			return nil, fmt.Errorf("frame duration must be positive, got %s", frame)
		}
		return NewHeadless(frame), nil
	}
}

func (h *Headless) Draw(stimuli ...Stimulus) {
	names := make([]string, len(stimuli))
	for i, s := range stimuli {
		names[i] = s.Name()
	}
	h.draws = append(h.draws, DrawCall{At: h.now, Names: names})
}

func (h *Headless) Flip() (time.Duration, error) {
	if h.closed {
		return 0, errors.New("display is closed")
	}
	h.now += h.frame
	h.flips++
	return h.now, nil
}

func (h *Headless) Close() error {
	h.closed = true
	return nil
}

// Flips returns the number of frames presented.
func (h *Headless) Flips() int { return h.flips }

// Draws returns the recorded Draw calls.
func (h *Headless) Draws() []DrawCall { return h.draws }

// Closed reports whether Close was called.
func (h *Headless) Closed() bool { return h.closed }

// Paced is a display that draws nothing but holds every Flip until the next
// frame boundary of the wall clock, so a session takes its real duration.
type Paced struct {
	frame time.Duration
	start time.Time
	flips int64
	now   func() time.Time
	sleep func(time.Duration)
}

// OpenPaced returns an Opener for a paced display.
func OpenPaced(frame time.Duration) Opener {
	return func() (Display, error) {
		if frame <= 0 {
			return nil, fmt.Errorf("frame duration must be positive, got %s", frame)
		}
		return &Paced{frame: frame, start: time.Now(), now: time.Now, sleep: time.Sleep}, nil
	}
}

func (p *Paced) Draw(...Stimulus) {}

func (p *Paced) Flip() (time.Duration, error) {
	p.flips++
	next := time.Duration(p.flips) * p.frame
	if wait := next - p.now().Sub(p.start); wait > 0 {
		p.sleep(wait)
	}
	return p.now().Sub(p.start), nil
}

func (p *Paced) Close() error { return nil }
