// Package runner executes an mANT session: instruction screens, demos, an
// unsaved training pass, the experimental blocks and the farewell screen.
//
// The runner owns no rendering. It draws Stimulus values on a Display and
// flips it once per frame; each trial is driven by a timeline.Machine ticked
// with the flip time and the keys reported by a Responder. Scored trials go
// to a Sink as TSV files laid out BIDS-style under the output root.
//
// A Runner is built once from an explicit config.Config:
//
//	r, err := runner.New(cfg, runner.WithResponder(resp), runner.WithSeed(7))
//	err = runner.WithDisplay(runner.OpenHeadless(cfg.FrameDuration()), func(d runner.Display) error {
//		summary, err = r.Run(ctx, d, runner.Session{Subject: "01"})
//		return err
//	})
package runner
