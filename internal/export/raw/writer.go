package raw

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/nerrad567/emsconvert/internal/model"
	"github.com/nerrad567/emsconvert/internal/network"
)

// state is a position in the RAW file. The writer always moves through
// every state in order; an empty section still writes its terminator.
type state int

const (
	stateHeader state = iota
	stateBus
	stateLoad
	stateGenerator
	stateBranch
	stateTransformer
	stateDone
)

func (s state) next() state {
	if s >= stateDone {
		return stateDone
	}
	return s + 1
}

// Write serialises m to w using grammar g. A nil grammar uses the default.
func Write(w io.Writer, m *model.SystemModel, g *Grammar) error {
	if g == nil {
		var err error
		if g, err = Lookup(DefaultConstraint); err != nil {
			return err
		}
	}

	rw := &writer{w: bufio.NewWriter(w), g: g}
	for s := stateHeader; s != stateDone; s = s.next() {
		switch s {
		case stateHeader:
			if g.Header != nil {
				rw.lines(g.Header(m.Info()))
			}
		case stateBus:
			writeSection(rw, g.Bus, m.Buses())
			rw.empty(g.EmptyAfter[network.KindBus])
		case stateLoad:
			writeSection(rw, g.Load, m.Loads())
			rw.empty(g.EmptyAfter[network.KindLoad])
		case stateGenerator:
			writeSection(rw, g.Generator, m.Generators())
			rw.empty(g.EmptyAfter[network.KindGenerator])
		case stateBranch:
			writeSection(rw, g.Branch, m.Branches())
			rw.empty(g.EmptyAfter[network.KindBranch])
		case stateTransformer:
			writeSection(rw, g.Transformer, m.Transformers())
			rw.empty(g.EmptyAfter[network.KindTransformer])
		}
	}
	rw.lines(g.Trailer)

	if rw.err != nil {
		return fmt.Errorf("writing RAW: %w", rw.err)
	}
	if err := rw.w.Flush(); err != nil {
		return fmt.Errorf("writing RAW: %w", err)
	}
	return nil
}

// writer remembers the first write error so callers check once.
type writer struct {
	w   *bufio.Writer
	g   *Grammar
	err error
}

func (rw *writer) line(s string) {
	if rw.err != nil {
		return
	}
	if _, err := rw.w.WriteString(s); err != nil {
		rw.err = err
		return
	}
	rw.err = rw.w.WriteByte('\n')
}

func (rw *writer) lines(ss []string) {
	for _, s := range ss {
		rw.line(s)
	}
}

func (rw *writer) terminate(section string) {
	rw.line(Terminator(section))
	if rw.g.BlankLineAfterSection {
		rw.line("")
	}
}

func (rw *writer) empty(sections []string) {
	for _, name := range sections {
		rw.terminate(name)
	}
}

func writeSection[T any](rw *writer, s Section[T], items []T) {
	if s.Title != "" {
		rw.line(s.Title)
	}
	for _, item := range items {
		layout, ok := s.layout(item)
		if !ok {
			continue
		}
		for _, cols := range layout.Lines {
			rw.line(renderLine(cols, item, rw.g.Separator))
		}
	}
	rw.terminate(s.Name)
}

func renderLine[T any](cols []Column[T], item T, sep string) string {
	fields := make([]string, len(cols))
	for i, c := range cols {
		fields[i] = c.Render(item)
	}
	return strings.Join(fields, sep)
}

func trimRight(s string) string {
	return strings.TrimRight(s, " ")
}
