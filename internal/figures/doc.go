// Package figures renders the aggregator's reaction-time figures as PDF
// files with gonum/plot.
//
// Every renderer takes the folder to write into and returns the path of the
// file it wrote. Conditions without reaction times are drawn as empty panels.
package figures
