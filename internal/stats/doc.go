// Package stats implements the inferential tests run on mANT reaction
// times: independent two-sample t-tests, a two-way repeated-measures ANOVA
// over cue type and target congruency, and Bonferroni-corrected pairwise
// comparisons between cue types. Distributions come from gonum.
package stats
