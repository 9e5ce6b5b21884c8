// Package equipment infers manufacturer and technical attributes of
// network equipment from free-text and coded fields.
//
// Enrichment is a pure function of an entity plus an immutable BrandTable.
// Every Enrich method takes an entity by value and returns an enriched
// copy, so one Intelligence may be shared by any number of goroutines and
// repeated calls give identical results.
//
// # What Gets Inferred
//
//   - Transformers: manufacturer and model, IEC vector group, canonical
//     cooling label.
//   - Generators: manufacturer and model, fuel, efficiency, commissioning
//     year and capacity. Values not read from the record are estimated
//     from fuel tables and flagged in network.Estimates.
//   - Loads: consumer class (residential, commercial, industrial).
//
// Codes that cannot be recognised never fail enrichment. The attribute is
// left unset (vector group) or kept verbatim (cooling), a warning is
// logged, and a network.Note is attached for validation to report.
//
// # Brand Tables
//
// A BrandTable maps canonical brand names to keywords. Matching is
// case-insensitive on word boundaries and the longest matching keyword
// wins, so "Hitachi Energy" beats "Hitachi". A keyword prefixed with "re:"
// is used as a regular expression. Tables come from DefaultBrandTable or
// from YAML:
//
//	brands:
//	  ABB: [ABB, Asea Brown Boveri]
//	  Hitachi Energy: [Hitachi Energy, Hitachi ABB]
//
// # Usage
//
//	table, err := equipment.LoadBrandTable("configs/brands.yaml")
//	if err != nil {
//	    return err
//	}
//	intel := equipment.New(table, equipment.Options{})
//	intel.SetLogger(log)
//	tx = intel.EnrichTransformer(tx)
package equipment
