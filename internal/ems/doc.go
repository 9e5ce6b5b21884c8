// Package ems reads EMS text record files and turns them into typed
// network entities.
//
// Three stages live here, each usable on its own:
//
//   - Reader: splits decoded text into records. It honours quoted names,
//     LF/CRLF/CR line endings, comment lines, blank lines, inline "/"
//     comments and "0 / END OF ... DATA" section terminators.
//   - Classifier: tags each record as Bus, Transformer, Generator, Load,
//     Branch or Unclassified from its field count and field shapes.
//   - Builder: coerces fields into network entities and applies defaults.
//
// # Record Layouts
//
// Fields are separated by whitespace and commas. Quoted text may contain
// either. Optional fields are positional; quoted text fields come last.
//
//	Bus:         I 'NAME' BASKV IDE [AREA ZONE OWNER VM VA NVHI NVLO EVHI EVLO]
//	Load:        I 'ID' PL QL [TYPE VDEP AREA ZONE] ['DESCRIPTION']
//	Generator:   I 'ID' PG QG QT QB VS MBASE [PMAX PMIN FUEL EFF YEAR] ['DESCRIPTION']
//	Branch:      I J 'CKT' R X [B RATEA RATEB RATEC LEN] ['DESCRIPTION']
//	Transformer: I J K 'CKT' NW R X S [TAP RMAX RMIN NTP V1 V2 VECTOR COOLING] ['NAME' ['DESCRIPTION']]
//
// A three-winding transformer sets K to the tertiary bus and NW to 3, and
// carries three impedance pairs, three ratings and three winding voltages.
//
// The transformer section also accepts the four-line layout, where the
// reader assembles the lines into one record with Continuation lines:
//
//	I J K ['CKT' ... 'NAME' ...]
//	R1-2 X1-2 [SBASE1-2]
//	WINDV1 [NOMV1 ANG1 RATA1 RATB1 RATC1 COD1 CONT1 RMA1 RMI1 VMA1 VMI1 NTP1]
//	WINDV2 [NOMV2] [NAME]
//
// With K set there are three impedance pairs and a WINDV3 line.
//
// # Error Handling
//
// Nothing in this package aborts on bad data. The reader yields a
// *MalformedRecordError for a line it cannot tokenise and carries on with
// the next line; the builder returns one for a record whose required
// fields cannot be coerced. Both are meant to be collected as diagnostics.
//
// # Usage
//
//	text, enc, err := ems.DecodeInput(data, ems.EncodingAuto)
//	if err != nil {
//	    return err
//	}
//	reader := ems.NewReader(text, ems.DefaultReaderOptions())
//	classifier := ems.NewClassifier(ems.DefaultThresholds())
//	builder := ems.NewBuilder()
//
//	for rec, err := range reader.Records() {
//	    if err != nil {
//	        // record the *MalformedRecordError and continue
//	        continue
//	    }
//	    entity, warnings, err := builder.Build(classifier.Classify(rec))
//	    ...
//	}
package ems
