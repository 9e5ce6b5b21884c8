// Package model holds the SystemModel, the frozen result of a conversion
// run.
//
// A SystemModel is built once by Freeze from the validation outcome and
// the record-level diagnostics, and never changes afterwards. Every
// accessor returns a copy, so exporters may read one model from several
// goroutines without locking.
//
// # Key Types
//
//   - SystemModel: the entities that passed validation, every issue, and
//     derived statistics.
//   - Statistics: totals per kind, generation and demand sums, the
//     voltage-level histogram, and per-kind parsed, excluded and warned
//     counts.
//   - ConversionInfo: where the model came from and how it was converted.
package model
