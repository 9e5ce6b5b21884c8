// Package raw writes a SystemModel as a PowerFactory-compatible RAW file.
//
// The file layout is not hard-coded. A Grammar declares, per entity kind,
// the typed columns of each record line, the decimal places of every
// number and the width of quoted text, plus the header, any extra empty
// sections and the trailer. Grammars are registered under a name and a
// semantic version, and Lookup picks the newest one that satisfies a
// constraint:
//
//	g, err := raw.Lookup("~30")    // legacy compact layout
//	g, err := raw.Lookup("33")     // PSS/E v33 (default)
//
// Sections are always written in the order header, bus, load, generator,
// branch, transformer. Each section ends with "0 / END OF <SECTION> DATA",
// also when it has no records. Numbers are formatted with
// shopspring/decimal so output never depends on float printing.
package raw
