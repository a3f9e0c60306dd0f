package dispatcher

import (
	"fmt"
	"strings"
)

// Priority orders handlers for a command. Higher runs first.
type Priority int

// Priority tiers.
const (
	PriorityFallback Priority = iota
	PriorityLow
	PriorityEditor
	PriorityHigh
	PriorityCritical
)

var priorityNames = map[Priority]string{
	PriorityFallback: "fallback",
	PriorityLow:      "low",
	PriorityEditor:   "editor",
	PriorityHigh:     "high",
	PriorityCritical: "critical",
}

func (p Priority) String() string {
	if s, ok := priorityNames[p]; ok {
		return s
	}
	return fmt.Sprintf("priority(%d)", int(p))
}

// Valid reports whether p is one of the five tiers.
func (p Priority) Valid() bool {
	return p >= PriorityFallback && p <= PriorityCritical
}

// ParsePriority parses a tier name.
func ParsePriority(s string) (Priority, error) {
	for p, name := range priorityNames {
		if strings.EqualFold(s, name) {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown priority %q", s)
}
