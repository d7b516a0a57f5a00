// Package analysis turns trial records into condition-level summaries:
// condition partitions, descriptive statistics, blockwise reorderings and
// sequential-dependency (repetition) counts.
//
// Every function takes records in trial order and never reorders its input.
// Missing reaction times are handled explicitly through a MissPolicy.
package analysis
