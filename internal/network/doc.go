// Package network defines the typed power-system entities produced by the
// EMS conversion pipeline.
//
// The entities are plain values: the builder creates them, equipment
// intelligence returns enriched copies, and validation only filters and
// annotates them. Nothing in this package performs I/O.
//
// # Key Types
//
//   - Bus: electrical node, keyed by its positive bus number
//   - Transformer: two- or three-winding transformer between buses
//   - Generator: machine connected to a bus, keyed by bus and machine id
//   - Load: demand connected to a bus, keyed by bus and load id
//   - Branch: line or cable between two buses, keyed by buses and circuit
//   - Issue: a diagnostic (warning or structural error) about one entity
//
// # Provenance
//
// Every entity carries the source line number and raw record text it was
// built from. Provenance is used for diagnostics only and is never written
// by an exporter.
package network
