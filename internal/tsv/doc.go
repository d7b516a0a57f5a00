// Package tsv reads and writes mANT trial files.
//
// Files are tab-separated with a header row. The column set depends on the
// experiment variant (see Columns); readers look columns up by name, so
// column order and extra columns do not matter.
//
// File names follow the BIDS-like convention
//
//	sub-<subject>_task-<task>[_run-<run>]_<datatype>_<trial>.tsv   (one trial)
//	sub-<subject>_ses-<session>_task-<task>_<datatype>.tsv        (one session)
//
// Find walks a directory tree for files of one data type and orders them by
// trial number or subject token.
package tsv
