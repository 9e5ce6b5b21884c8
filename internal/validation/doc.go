// Package validation checks a set of candidate entities for structural
// and referential consistency.
//
// The engine sorts findings into two severities:
//
//   - Structural errors make an entity unusable: a bus with a non-positive
//     number or nominal voltage, a duplicate key, a reference to a bus that
//     does not exist, or a branch that connects a bus to itself. The entity
//     is excluded and exactly one error issue is recorded for it.
//   - Warnings flag values outside their expected physical range, such as
//     a negative impedance or a winding voltage far from the bus nominal.
//     The entity stays in the model.
//
// Validation is a pure function of its input. It never aborts: a broken
// entity is removed and the rest carry on.
//
// # Usage
//
//	engine := validation.New(validation.Options{VoltageTolerance: 0.1})
//	out := engine.Validate(validation.Candidates{
//	    Buses:        buses,
//	    Transformers: transformers,
//	})
//	for _, issue := range out.Issues {
//	    fmt.Println(issue)
//	}
package validation
