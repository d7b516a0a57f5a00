package runner

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Text screens shown during a session. A text directory holds them as
// <name>.txt.
const (
	ScreenWelcome      = "welcome-message"
	ScreenPostDemo     = "post-demo-message"
	ScreenPostTraining = "post-training-message"
	ScreenScanner      = "waiting-for-scanner"
	ScreenEndOfBlock   = "end-of-block-message"
	ScreenFarewell     = "farewell-message"
)

// Demo screens.
const (
	DemoFixation = "fixation_demo"
	DemoCue      = "cue_demo"
	DemoArrows   = "arrows_demo"
)

var builtinText = map[string]string{
	ScreenWelcome: "Welcome!\n\nKeep your eyes on the cross in the middle of the screen.\n" +
		"A row of arrows will appear above or below it. Report the direction of the middle arrow as fast and as accurately as you can.\n\n" +
		"Press the continue key to see the stimuli.",
	ScreenPostDemo:     "You will now do a short practice block. Press the continue key to start.",
	ScreenPostTraining: "Practice is over. The experiment starts now. Press the continue key when you are ready.",
	ScreenScanner:      "Waiting for the scanner...",
	ScreenEndOfBlock:   "End of block. Take a short break.\n\nPress the continue key to go on, or escape to stop.",
	ScreenFarewell:     "Thank you for taking part!",
}

// Texts resolves the message of each screen.
type Texts struct {
	dir string
}

// NewTexts reads screens from dir. An empty dir uses the built-in messages.
func NewTexts(dir string) Texts {
	return Texts{dir: dir}
}

// Get returns the message of a screen in NFC form. Screens missing from the
// text directory fall back to the built-in message.
func (t Texts) Get(screen string) (string, error) {
	if t.dir != "" {
		data, err := os.ReadFile(filepath.Join(t.dir, screen+".txt"))
		switch {
		case err == nil:
			return norm.NFC.String(strings.TrimRight(string(data), "\n")), nil
		case !errors.Is(err, fs.ErrNotExist):
			return "", fmt.Errorf("read %s text: %w", screen, err)
		}
	}
	text, ok := builtinText[screen]
	if !ok {
		return "", fmt.Errorf("no text for screen %q", screen)
	}
	return text, nil
}
