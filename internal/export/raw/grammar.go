package raw

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/Masterminds/semver/v3"

	"github.com/nerrad567/emsconvert/internal/model"
	"github.com/nerrad567/emsconvert/internal/network"
)

// DefaultConstraint selects the grammar used when none is configured.
const DefaultConstraint = "33"

// Layout is the line structure of one record. A record may span several
// lines, e.g. a PSS/E transformer.
type Layout[T any] struct {
	// When selects the layout; nil matches every entity.
	When func(T) bool

	Lines [][]Column[T]
}

// Section describes how one entity kind is written.
type Section[T any] struct {
	// Name is used in the terminator, e.g. "BUS" for "0 / END OF BUS DATA".
	Name string

	// Title is an optional line written before the first record.
	Title string

	// Layouts are tried in order; the first whose When matches is used.
	Layouts []Layout[T]
}

func (s Section[T]) layout(v T) (Layout[T], bool) {
	for _, l := range s.Layouts {
		if l.When == nil || l.When(v) {
			return l, true
		}
	}
	return Layout[T]{}, false
}

// Grammar is a versioned RAW file layout.
type Grammar struct {
	Name    string
	Version *semver.Version

	// Separator joins the columns of a line.
	Separator string

	// Header returns the case identification lines. It has no terminator.
	Header func(info model.ConversionInfo) []string

	Bus         Section[network.Bus]
	Load        Section[network.Load]
	Generator   Section[network.Generator]
	Branch      Section[network.Branch]
	Transformer Section[network.Transformer]

	// EmptyAfter lists empty sections written straight after the section
	// of the given kind, e.g. fixed shunts after loads.
	EmptyAfter map[network.Kind][]string

	// BlankLineAfterSection adds an empty line after each terminator.
	BlankLineAfterSection bool

	// Trailer is written after the last section.
	Trailer []string
}

// String returns "name version", e.g. "psse 33.0.0".
func (g *Grammar) String() string {
	return fmt.Sprintf("%s %s", g.Name, g.Version)
}

// Terminator returns the sentinel record that closes a section.
func Terminator(section string) string {
	return fmt.Sprintf("0 / END OF %s DATA", section)
}

var (
	registryMu sync.RWMutex
	registry   []*Grammar
)

func init() {
	for _, g := range []*Grammar{psse33(), psse30()} {
		if err := Register(g); err != nil {
			panic(err)
		}
	}
}

// Register adds a grammar to the registry.
func Register(g *Grammar) error {
	if g == nil || g.Name == "" || g.Version == nil {
		return ErrInvalidGrammar
	}
	registryMu.Lock()
	defer registryMu.Unlock()

	for _, existing := range registry {
		if existing.Name == g.Name && existing.Version.Equal(g.Version) {
			return fmt.Errorf("%w: %s", ErrDuplicateGrammar, g)
		}
	}
	registry = append(registry, g)
	sort.Slice(registry, func(i, j int) bool {
		return registry[i].Version.GreaterThan(registry[j].Version)
	})
	return nil
}

// Grammars returns every registered grammar, newest first.
func Grammars() []*Grammar {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return append([]*Grammar(nil), registry...)
}

// Lookup returns the highest registered grammar version satisfying
// constraint. An empty constraint uses DefaultConstraint. The constraint
// may be prefixed with a grammar name and "@", e.g. "psse@~30".
func Lookup(constraint string) (*Grammar, error) {
	name := ""
	constraint = strings.TrimSpace(constraint)
	if n, c, ok := strings.Cut(constraint, "@"); ok {
		name, constraint = strings.TrimSpace(n), strings.TrimSpace(c)
	}
	if constraint == "" {
		constraint = DefaultConstraint
	}

	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrInvalidConstraint, constraint, err)
	}

	registryMu.RLock()
	defer registryMu.RUnlock()
	for _, g := range registry {
		if name != "" && g.Name != name {
			continue
		}
		if c.Check(g.Version) {
			return g, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrNoGrammar, constraint)
}
