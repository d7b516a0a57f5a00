package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/rand"

	"github.com/roach88/mant/internal/config"
	"github.com/roach88/mant/internal/timeline"
	"github.com/roach88/mant/internal/trial"
)

// ErrNoSubject is returned when a session is started without a subject ID.
var ErrNoSubject = errors.New("subject ID is required")

// Session identifies one sitting of one subject.
type Session struct {
	Subject string
	// Run is the scanner run number. It defaults to "1" for configs with
	// run folders and is ignored otherwise.
	Run string
}

// Summary describes a finished (or aborted) session.
type Summary struct {
	ID      uuid.UUID
	Variant config.Variant
	Layout  Layout

	// Records are the saved experimental trials in presentation order.
	Records []trial.Record
	// Training trials are scored but never written.
	Training []trial.Record

	// Blocks counts the blocks whose trials all ran.
	Blocks int
	// Aborted is set when the subject pressed escape during a trial, or at
	// the end of a block with blocks still to run.
	Aborted bool
	Files   []string

	Started  time.Time
	Duration time.Duration
}

// Counts tallies the outcomes of the saved trials.
func (s Summary) Counts() (correct, incorrect, misses int) {
	for _, r := range s.Records {
		switch r.Correct {
		case trial.Correct:
			correct++
		case trial.Incorrect:
			incorrect++
		case trial.Miss:
			misses++
		}
	}
	return correct, incorrect, misses
}

// Runner executes sessions for one config.
type Runner struct {
	cfg       *config.Config
	design    trial.Design
	pool      Pool
	training  Pool
	texts     Texts
	responder Responder
	port      TriggerPort
	logger    *slog.Logger
	seed      uint64
	now       func() time.Time
	newID     func() (uuid.UUID, error)
}

// Option configures a Runner.
type Option func(*Runner)

// WithResponder sets who answers the screens. The default is a Simulated
// subject with DefaultProfile.
func WithResponder(r Responder) Option {
	return func(rn *Runner) { rn.responder = r }
}

// WithTriggerPort sets the port trigger codes are sent to. Codes are sent
// only when the config defines triggers.
func WithTriggerPort(p TriggerPort) Option {
	return func(rn *Runner) { rn.port = p }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(rn *Runner) { rn.logger = l }
}

// WithSeed fixes the source of trial order, jitter and demo choice.
func WithSeed(seed uint64) Option {
	return func(rn *Runner) { rn.seed = seed }
}

// WithPools replaces the experimental and training condition pools.
func WithPools(main, training Pool) Option {
	return func(rn *Runner) {
		rn.pool = main
		rn.training = training
	}
}

// WithClock sets the wall clock used for the session start time.
func WithClock(now func() time.Time) Option {
	return func(rn *Runner) { rn.now = now }
}

// WithIDs sets the generator of session IDs. The default is uuid.NewV7.
func WithIDs(gen func() (uuid.UUID, error)) Option {
	return func(rn *Runner) { rn.newID = gen }
}

// New validates cfg and loads its condition pools.
func New(cfg *config.Config, opts ...Option) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("runner: nil config")
	}
	design, err := cfg.Design()
	if err != nil {
		return nil, fmt.Errorf("runner: %w", err)
	}

	r := &Runner{
		cfg:    cfg,
		design: design,
		texts:  NewTexts(cfg.TextDir),
		logger: slog.Default(),
		seed:   uint64(time.Now().UnixNano()),
		now:    time.Now,
		newID:  uuid.NewV7,
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.pool == nil {
		if r.pool, err = loadPool(cfg.ConditionsFile, design); err != nil {
			return nil, err
		}
	}
	if r.training == nil {
		if cfg.TrainingConditionsFile == "" {
			r.training = r.pool
		} else if r.training, err = LoadPool(cfg.TrainingConditionsFile); err != nil {
			return nil, err
		}
	}
	if len(r.pool) == 0 {
		return nil, errors.New("runner: condition pool is empty")
	}
	if missing := r.pool.Missing(design); len(missing) > 0 {
		r.logger.Warn("condition pool does not cover the design", "missing", len(missing))
	}
	if cfg.TrialsPerBlock%len(r.pool) != 0 {
		r.logger.Warn("trials per block is not a multiple of the pool size, the last repetition of each block is partial",
			"trials_per_block", cfg.TrialsPerBlock, "pool", len(r.pool))
	}
	if r.responder == nil {
		r.responder = NewSimulated(DefaultProfile, cfg.Keys, r.seed)
	}
	return r, nil
}

func loadPool(path string, design trial.Design) (Pool, error) {
	if path == "" {
		return BuiltinPool(design), nil
	}
	return LoadPool(path)
}

// session is the mutable state of one Run.
type session struct {
	*Runner
	display  Display
	schedule *timeline.Schedule
	rng      *rand.Rand
	sink     Sink
	subject  string
	block    int // block index offset for scanner runs

	// runStart is reset when the scanner trigger arrives.
	runStart time.Duration
	last     time.Duration
}

// Run executes one session on d and returns what happened. Trials are
// written as they finish, so an error or cancellation keeps the trials
// saved before it.
func (r *Runner) Run(ctx context.Context, d Display, sess Session) (*Summary, error) {
	subject := strings.TrimPrefix(strings.TrimSpace(sess.Subject), "sub-")
	if subject == "" {
		return nil, ErrNoSubject
	}

	layout := Layout{Root: r.cfg.Output.Root, Subject: subject, Session: r.cfg.Session}
	offset := 0
	if r.cfg.Output.RunDirs {
		layout.Run = sess.Run
		if layout.Run == "" {
			layout.Run = "1"
		}
		n, err := strconv.Atoi(layout.Run)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid run %q: must be a positive number", layout.Run)
		}
		offset = n - 1
	}

	id, err := r.newID()
	if err != nil {
		return nil, fmt.Errorf("generate session id: %w", err)
	}
	sink, err := NewSink(r.cfg, layout)
	if err != nil {
		return nil, err
	}

	src := rand.NewSource(r.seed)
	schedule, err := timeline.NewSchedule(r.cfg.Timing, src)
	if err != nil {
		return nil, err
	}
	s := &session{
		Runner:   r,
		display:  d,
		schedule: schedule,
		rng:      rand.New(src),
		sink:     sink,
		subject:  "sub-" + subject,
		block:    offset,
	}

	sum := &Summary{ID: id, Variant: r.cfg.Variant, Layout: layout, Started: r.now()}
	log := r.logger.With("session_id", id.String(), "subject", s.subject)
	log.Info("session started", "variant", r.cfg.Variant, "blocks", r.cfg.Blocks, "trials_per_block", r.cfg.TrialsPerBlock)

	err = s.run(ctx, sum, log)
	if cerr := sink.Close(); cerr != nil && err == nil {
		err = fmt.Errorf("close output: %w", cerr)
	}
	sum.Files = sink.Files()
	sum.Duration = r.now().Sub(sum.Started)
	if err != nil {
		return sum, err
	}
	correct, incorrect, misses := sum.Counts()
	log.Info("session finished",
		"blocks", sum.Blocks, "trials", len(sum.Records), "aborted", sum.Aborted,
		"correct", correct, "incorrect", incorrect, "misses", misses)
	return sum, nil
}

func (s *session) run(ctx context.Context, sum *Summary, log *slog.Logger) error {
	instructions := seconds(s.cfg.Timing.InstructionsS)
	cont := append(slices.Clone(s.cfg.Prompts.Continue), trial.EscapeKey)

	if _, err := s.prompt(ctx, ScreenWelcome, cont, instructions); err != nil {
		return err
	}
	if s.cfg.Demos {
		if err := s.demos(ctx); err != nil {
			return err
		}
	}
	if _, err := s.prompt(ctx, ScreenPostDemo, cont, instructions); err != nil {
		return err
	}

	if s.cfg.Training {
		for i, e := range s.training.Shuffled(s.rng) {
			rec, aborted, err := s.trial(ctx, e, i, -1, true)
			if err != nil {
				return err
			}
			sum.Training = append(sum.Training, rec)
			if aborted {
				sum.Aborted = true
				break
			}
		}
		log.Debug("training finished", "trials", len(sum.Training))
	}

	if !sum.Aborted {
		if _, err := s.prompt(ctx, ScreenPostTraining, cont, instructions); err != nil {
			return err
		}
	}

	if !sum.Aborted && s.cfg.Prompts.ScannerTrigger != "" {
		key, err := s.prompt(ctx, ScreenScanner, []string{s.cfg.Prompts.ScannerTrigger}, instructions)
		if err != nil {
			return err
		}
		if key == "" {
			log.Warn("scanner trigger not received, starting the run clock anyway")
		}
		s.runStart = s.last
	}

	for b := 0; b < s.cfg.Blocks && !sum.Aborted; b++ {
		entries := s.pool.Repeat(s.cfg.TrialsPerBlock, s.rng)
		for _, e := range entries {
			rec, aborted, err := s.trial(ctx, e, len(sum.Records), s.block+b, false)
			if err != nil {
				return err
			}
			if err := s.sink.Save(rec); err != nil {
				return fmt.Errorf("save trial %d: %w", rec.Index, err)
			}
			sum.Records = append(sum.Records, rec)
			if aborted {
				sum.Aborted = true
				break
			}
		}
		if sum.Aborted {
			log.Info("session aborted during a trial", "block", b)
			break
		}
		sum.Blocks++
		log.Info("block finished", "block", s.block+b, "trials", len(entries))

		key, err := s.prompt(ctx, ScreenEndOfBlock, cont, seconds(s.cfg.Timing.EndOfBlockS))
		if err != nil {
			return err
		}
		if key == trial.EscapeKey {
			sum.Aborted = b < s.cfg.Blocks-1
			log.Info("session stopped at the end of a block", "block", s.block+b)
			break
		}
	}

	_, err := s.prompt(ctx, ScreenFarewell, cont, instructions)
	return err
}

// trial runs one trial to completion and returns its scored record. The
// returned bool reports an escape in the response window.
func (s *session) trial(ctx context.Context, e Entry, index, block int, training bool) (trial.Record, bool, error) {
	plan := s.schedule.Next()
	m := timeline.New(plan, e.Direction, s.cfg.Keys)

	s.display.Draw(Fixation())
	s.responder.Arm(Event{Kind: TrialStarted, At: s.runTime(), Entry: e, Training: training, Trial: index})

	responseSent := false
	for !m.Done() {
		now, err := s.flip(ctx)
		if err != nil {
			return trial.Record{}, false, err
		}
		v := m.Tick(now, s.responder.Keys(now))
		if v == timeline.Continue {
			continue
		}
		if err := s.enter(m, e, now, training, index); err != nil {
			return trial.Record{}, false, err
		}
		if resp := m.Response(); resp.Pressed && !responseSent && !m.Aborted() {
			responseSent = true
			if err := s.trigger(now, s.triggerCode(func(t *config.Triggers) byte { return byte(t.Response) })); err != nil {
				return trial.Record{}, false, err
			}
		}
	}

	rec := e.Record()
	rec.Apply(m.Outcome())
	rec.Subject = s.subject
	rec.Block = block
	rec.Index = index
	rec.PreCueJitter = trial.Sec(plan.InitialFixation.Seconds())
	rec.PostCueJitter = trial.Sec(plan.PostCueFixation.Seconds())
	marks := m.Marks()
	rec.Onsets = trial.Onsets{Cue: trial.Sec(marks.Cue.Seconds()), Target: trial.Sec(marks.Target.Seconds())}
	if m.Response().Pressed {
		rec.Onsets.Response = trial.Sec(marks.Response.Seconds())
	}

	s.logger.Debug("trial finished",
		"trial", index, "block", block, "training", training,
		"condition", rec.Condition().Label(), "response", rec.Response, "correct", int(rec.Correct), "rt", rec.RT.String())
	return rec, m.Aborted(), nil
}

// enter updates the screen for the phase m just entered.
func (s *session) enter(m *timeline.Machine, e Entry, now time.Duration, training bool, index int) error {
	switch m.Phase() {
	case timeline.Cue:
		s.display.Draw(Fixation(), CueFor(e))
		return s.trigger(now, s.triggerCode(func(t *config.Triggers) byte { return cueCode(t, e.CueType) }))
	case timeline.PostCueFixation, timeline.TrailingFixation:
		s.display.Draw(Fixation())
	case timeline.ResponseWindow:
		s.display.Draw(Fixation(), ArrowsFor(e))
		s.responder.Arm(Event{Kind: TargetShown, At: now, Keys: s.cfg.Keys.Admissible(), Entry: e, Training: training, Trial: index})
		return s.trigger(now, s.triggerCode(func(t *config.Triggers) byte { return targetCode(t, e.Congruency) }))
	case timeline.Scoring, timeline.Done:
		s.display.Draw()
	}
	return nil
}

// prompt shows a text screen until one of keys is pressed or duration
// elapses. It returns the key, or "" on timeout.
func (s *session) prompt(ctx context.Context, screen string, keys []string, duration time.Duration) (string, error) {
	text, err := s.texts.Get(screen)
	if err != nil {
		return "", err
	}
	s.display.Draw(TextScreen(screen, text))
	defer s.display.Draw()
	return s.await(ctx, Event{Kind: PromptShown, Screen: screen, Keys: keys}, duration)
}

// demos shows the fixation cross, a cue and an arrow sequence of a random
// training entry. Each can be skipped with a continue key.
func (s *session) demos(ctx context.Context) error {
	e := s.training[s.rng.Intn(len(s.training))]
	d := seconds(s.cfg.Timing.DemoS)
	steps := []struct {
		screen  string
		stimuli []Stimulus
	}{
		{DemoFixation, []Stimulus{Fixation()}},
		{DemoCue, []Stimulus{Fixation(), CueFor(e)}},
		{DemoArrows, []Stimulus{Fixation(), ArrowsFor(e)}},
	}
	for _, step := range steps {
		s.display.Draw(step.stimuli...)
		if _, err := s.await(ctx, Event{Kind: DemoShown, Screen: step.screen, Keys: s.cfg.Prompts.Continue}, d); err != nil {
			return err
		}
	}
	s.display.Draw()
	return nil
}

func (s *session) await(ctx context.Context, ev Event, duration time.Duration) (string, error) {
	ev.At = s.runTime()
	s.responder.Arm(ev)
	frames := max(int(duration/s.cfg.FrameDuration()), 1)
	for range frames {
		now, err := s.flip(ctx)
		if err != nil {
			return "", err
		}
		for _, k := range s.responder.Keys(now) {
			if slices.Contains(ev.Keys, k) {
				return k, nil
			}
		}
	}
	return "", nil
}

func (s *session) flip(ctx context.Context) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	t, err := s.display.Flip()
	if err != nil {
		return 0, fmt.Errorf("flip: %w", err)
	}
	s.last = t
	return t - s.runStart, nil
}

func (s *session) runTime() time.Duration {
	return s.last - s.runStart
}

func (s *session) triggerCode(code func(*config.Triggers) byte) byte {
	if s.cfg.Triggers == nil {
		return 0
	}
	return code(s.cfg.Triggers)
}

// trigger sends a non-zero code to the port.
func (s *session) trigger(at time.Duration, code byte) error {
	if code == 0 || s.port == nil {
		return nil
	}
	if err := s.port.Send(at, code); err != nil {
		return fmt.Errorf("send trigger %d: %w", code, err)
	}
	return nil
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
