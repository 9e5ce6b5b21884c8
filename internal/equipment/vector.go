package equipment

import "github.com/nerrad567/emsconvert/internal/network"

// vectorGroups is the set of IEC 60076-1 vector groups in common use,
// keyed by their canonical label.
var vectorGroups = func() map[string]bool {
	labels := []string{
		// Clock 0
		"Yy0", "YNyn0", "Yyn0", "YNy0", "Dd0", "Dz0", "Dzn0",
		// Clock 1
		"Yd1", "YNd1", "Dy1", "Dyn1", "Yz1", "Yzn1", "YNzn1",
		// Clock 5
		"Yd5", "YNd5", "Dy5", "Dyn5", "Yz5", "Yzn5", "YNzn5",
		// Clock 6
		"Yy6", "YNyn6", "Yyn6", "Dd6", "Dz6", "Dzn6",
		// Clock 7
		"Yd7", "YNd7", "Dy7", "Dyn7", "Yz7", "Yzn7",
		// Clock 11
		"Yd11", "YNd11", "Dy11", "Dyn11", "Yz11", "Yzn11", "YNzn11",
		// Three-winding
		"YNyn0d1", "YNyn0d5", "YNyn0d11", "YNd1d1", "YNd11d11",
		"YNyn0yn0", "Yy0d11", "Dyn1yn1", "Dyn11yn11", "Dd0d0",
	}
	m := make(map[string]bool, len(labels))
	for _, l := range labels {
		m[l] = true
	}
	return m
}()

// VectorGroup returns the canonical IEC label for a winding configuration.
// ok is false when the configuration is absent, does not parse, or names a
// combination outside the table.
func VectorGroup(w network.WindingConfig) (label string, ok bool) {
	label = w.Label()
	if label == "" || !vectorGroups[label] {
		return "", false
	}
	return label, true
}
