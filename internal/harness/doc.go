// Package harness runs scripted mANT sessions end to end and checks what
// they produce.
//
// A scenario picks a variant preset, overlays config fields, fixes the
// condition pool and scripts every answer. The harness runs the session on
// a headless display with a manual clock, records trigger codes, archives
// the trials into an in-memory store and compares the files on disk with the
// archive before evaluating assertions.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	variant: eeg
//	seed: 7
//	subject: "01"
//	config:
//	  blocks: 2
//	  trials_per_block: 2
//	pool: |
//	  cue_location,sequence_location,cue_type,target_congruent,target_direction
//	  up,up,spatial valid,yes,left
//	answers:
//	  trials:
//	    - {key: left, rt: 300ms}
//	    - {key: ""}
//	  prompts:
//	    end-of-block-message: escape
//	assertions:
//	  - type: outcome_counts
//	    correct: 1
//	    misses: 1
//	  - type: triggers
//	    codes: [2, 4, 6, 2, 4]
//
// # Golden Files
//
// RunWithGolden compares a text snapshot of the session against
// testdata/golden/{name}.golden. Reaction times and onsets depend on frame
// quantization and are left out of the snapshot.
package harness
