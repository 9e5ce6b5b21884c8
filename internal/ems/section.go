package ems

import (
	"regexp"
	"strconv"
	"strings"
)

// Section is the data section a record was read from.
type Section int

// Sections, in the order EMS files list them.
const (
	SectionUnknown Section = iota
	SectionBus
	SectionLoad
	SectionGenerator
	SectionBranch
	SectionTransformer

	// SectionFixedShunt sits between loads and generators in PSS/E-style
	// exports. Its records are not imported.
	SectionFixedShunt

	// SectionOther is any other section, such as area or zone data.
	SectionOther
)

var sectionNames = map[Section]string{
	SectionUnknown:     "unknown",
	SectionBus:         "bus",
	SectionLoad:        "load",
	SectionGenerator:   "generator",
	SectionBranch:      "branch",
	SectionTransformer: "transformer",
	SectionFixedShunt:  "fixed shunt",
	SectionOther:       "other",
}

func (s Section) String() string {
	if name, ok := sectionNames[s]; ok {
		return name
	}
	return "Section(" + strconv.Itoa(int(s)) + ")"
}

var (
	beginSectionPattern = regexp.MustCompile(`(?i)BEGIN\s+(.+?)\s+DATA`)
	endSectionPattern   = regexp.MustCompile(`(?i)END\s+OF\s+(.+?)\s+DATA`)
)

// nextSection derives the section that follows a "0" terminator record.
// "BEGIN X DATA" names the next section directly, and "END OF X DATA"
// advances past X. A bare terminator advances from the current section.
func nextSection(current Section, comment string) Section {
	if m := beginSectionPattern.FindStringSubmatch(comment); m != nil {
		return sectionFromName(m[1])
	}
	if m := endSectionPattern.FindStringSubmatch(comment); m != nil {
		return advance(sectionFromName(m[1]))
	}
	return advance(current)
}

func advance(s Section) Section {
	switch s {
	case SectionUnknown:
		return SectionLoad
	case SectionBus, SectionLoad, SectionGenerator, SectionBranch:
		return s + 1
	case SectionFixedShunt:
		return SectionGenerator
	default:
		return SectionOther
	}
}

func sectionFromName(name string) Section {
	switch strings.ToUpper(strings.Join(strings.Fields(name), " ")) {
	case "BUS":
		return SectionBus
	case "LOAD":
		return SectionLoad
	case "GENERATOR", "MACHINE":
		return SectionGenerator
	case "BRANCH", "NON-TRANSFORMER BRANCH", "LINE":
		return SectionBranch
	case "TRANSFORMER":
		return SectionTransformer
	case "FIXED SHUNT", "SHUNT":
		return SectionFixedShunt
	default:
		return SectionOther
	}
}
