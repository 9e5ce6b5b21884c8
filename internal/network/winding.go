package network

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var windingPattern = regexp.MustCompile(`(?i)^(YN|ZN|Y|D|Z)[-_/.]?(YN|ZN|Y|D|Z)[-_/.]?(\d{1,2})(?:[-_/.]?(YN|ZN|Y|D|Z)[-_/.]?(\d{1,2}))?$`)

// ParseWindingConfig splits a vector-group token such as "YNd11", "Dyn5",
// "YN-d-11" or "YNyn0d1" into winding letters and clock numbers. A token
// that does not parse is kept in Raw with the other fields empty.
func ParseWindingConfig(token string) WindingConfig {
	w := WindingConfig{Raw: token}
	m := windingPattern.FindStringSubmatch(strings.TrimSpace(token))
	if m == nil {
		return w
	}
	w.HV = strings.ToUpper(m[1])
	w.LV = strings.ToLower(m[2])
	w.Clock, _ = strconv.Atoi(m[3])
	if m[4] != "" {
		w.TV = strings.ToLower(m[4])
		w.TVClock, _ = strconv.Atoi(m[5])
	}
	return w
}

// Label renders the configuration in IEC notation, e.g. "YNd11" or
// "YNyn0d1". It returns "" when the configuration did not parse.
func (w WindingConfig) Label() string {
	if w.HV == "" || w.LV == "" {
		return ""
	}
	label := fmt.Sprintf("%s%s%d", w.HV, w.LV, w.Clock)
	if w.TV != "" {
		label += fmt.Sprintf("%s%d", w.TV, w.TVClock)
	}
	return label
}
