package tree

import "strings"

// HitMode tells where a dragged node lands relative to the drop target.
type HitMode uint8

const (
	Before HitMode = 1 << iota
	After
	Over
)

func (m HitMode) String() string {
	switch m {
	case Before:
		return "before"
	case After:
		return "after"
	case Over:
		return "over"
	default:
		return "unknown"
	}
}

// ParseHitMode parses the String form of a hit mode.
func ParseHitMode(s string) (HitMode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "before":
		return Before, true
	case "after":
		return After, true
	case "over", "into":
		return Over, true
	}
	return 0, false
}

// HitModes is a set of allowed hit modes.
type HitModes uint8

const (
	SiblingHitModes = HitModes(Before | After)
	AllHitModes     = HitModes(Before | After | Over)
)

// Has reports whether m is in the set.
func (s HitModes) Has(m HitMode) bool {
	return m != 0 && HitModes(m)&s == HitModes(m)
}

func (s HitModes) String() string {
	var parts []string
	for _, m := range []HitMode{Before, After, Over} {
		if s.Has(m) {
			parts = append(parts, m.String())
		}
	}
	return "{" + strings.Join(parts, ",") + "}"
}
