package network

// Kind identifies an entity type.
type Kind string

// Entity kinds.
const (
	KindBus         Kind = "bus"
	KindTransformer Kind = "transformer"
	KindGenerator   Kind = "generator"
	KindLoad        Kind = "load"
	KindBranch      Kind = "branch"

	// KindRecord refers to a source record that never became an entity.
	KindRecord Kind = "record"
)

// AllKinds returns the entity kinds in export order.
func AllKinds() []Kind {
	return []Kind{KindBus, KindLoad, KindGenerator, KindBranch, KindTransformer}
}

// Plural returns the plural label used for statistics keys ("buses", "loads", ...).
func (k Kind) Plural() string {
	switch k {
	case KindBus:
		return "buses"
	case KindTransformer:
		return "transformers"
	case KindGenerator:
		return "generators"
	case KindLoad:
		return "loads"
	case KindBranch:
		return "branches"
	default:
		return string(k) + "s"
	}
}
