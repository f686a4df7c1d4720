package dora

import (
	"strings"
	"time"
)

// DeploymentRecord represents one deployment event as supplied by a
// collection source. Timestamp fields are deliberately untyped: file-based
// sources deliver ISO 8601 strings while API-backed sources build time.Time
// values directly, and the calculator normalizes both through NormalizeTime.
type DeploymentRecord struct {
	ID          string            `json:"id" yaml:"id"`
	Type        string            `json:"type,omitempty" yaml:"type,omitempty"`
	Timestamp   any               `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
	StartTime   any               `json:"start_time,omitempty" yaml:"start_time,omitempty"`
	EndTime     any               `json:"end_time,omitempty" yaml:"end_time,omitempty"`
	Status      string            `json:"status,omitempty" yaml:"status,omitempty"`
	Environment string            `json:"environment,omitempty" yaml:"environment,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// IncidentRecord represents one service incident as supplied by a collection
// source. Same timestamp conventions as DeploymentRecord.
type IncidentRecord struct {
	ID           string            `json:"id" yaml:"id"`
	Type         string            `json:"type,omitempty" yaml:"type,omitempty"`
	Severity     string            `json:"severity,omitempty" yaml:"severity,omitempty"`
	Timestamp    any               `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
	StartTime    any               `json:"start_time,omitempty" yaml:"start_time,omitempty"`
	EndTime      any               `json:"end_time,omitempty" yaml:"end_time,omitempty"`
	ResolvedTime any               `json:"resolved_time,omitempty" yaml:"resolved_time,omitempty"`
	Status       string            `json:"status,omitempty" yaml:"status,omitempty"`
	RootCause    string            `json:"root_cause,omitempty" yaml:"root_cause,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// timestampLayouts covers the ISO 8601 shapes collection sources actually
// produce: offset-qualified, naive, space-separated, and date-only.
var timestampLayouts = []string{
	"2006-01-02T15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// NormalizeTime converts a raw timestamp value into a time.Time. Strings are
// parsed as ISO 8601; a trailing "Z" is rewritten to a +00:00 offset before
// parsing. Values that are neither strings nor time.Time, and strings that
// fail every layout, report false so callers can drop them.
func NormalizeTime(v any) (time.Time, bool) {
	switch ts := v.(type) {
	case time.Time:
		return ts, true
	case *time.Time:
		if ts == nil {
			return time.Time{}, false
		}
		return *ts, true
	case string:
		s := strings.TrimSpace(ts)
		if s == "" {
			return time.Time{}, false
		}
		if strings.HasSuffix(s, "Z") {
			s = strings.TrimSuffix(s, "Z") + "+00:00"
		}
		for _, layout := range timestampLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

// hasValue reports whether a raw timestamp field carries anything at all.
// A nil value or an empty string counts as absent; an unparseable string
// still counts as present.
func hasValue(v any) bool {
	if v == nil {
		return false
	}
	if s, ok := v.(string); ok {
		return s != ""
	}
	return true
}

// firstValue returns the first of the given values that is present.
func firstValue(values ...any) any {
	for _, v := range values {
		if hasValue(v) {
			return v
		}
	}
	return nil
}
