// Package history keeps a record of conversion runs in SQLite.
//
// Every run, successful or not, is stored with its entity totals, issue
// counts and output paths; the diagnostics of a run are stored alongside
// it so that recurring problems in an EMS feed can be queried later:
//
//	SELECT code, COUNT(*) FROM conversion_issues GROUP BY code;
//
// The schema lives in the migrations package.
package history
