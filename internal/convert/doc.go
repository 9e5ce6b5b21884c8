// Package convert runs the EMS to PowerFactory pipeline.
//
// Parse turns raw input bytes into a frozen model:
//
//	decode → read records → classify → build → enrich → validate → freeze
//
// Record-level problems never stop a run. Malformed records become
// MALFORMED_RECORD errors and unclassified records UNCLASSIFIED_RECORD
// warnings in the model's issue list.
//
// ConvertFile adds the file system: it reads the input, writes the RAW
// file, the metadata document and the tabular report concurrently, and
// finally notifies the registered hooks (history, telemetry, events).
// Only I/O problems fail a run; they are reported as *IOFailure.
package convert
