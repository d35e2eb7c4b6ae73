// Package pathutil computes backend paths for the files panel.
//
// Every path handled by the panel is canonical: slash separated, cleaned,
// and without a trailing separator (the root "/" is the only path ending
// in one). Drivers convert their native paths at the boundary.
package pathutil

import (
	"path"
	"strings"
)

// Separator is the separator used by canonical paths.
const Separator = "/"

// Canonical returns the canonical form of p. An empty path stays empty.
func Canonical(p string) string {
	if p == "" {
		return ""
	}
	return path.Clean(p)
}

// ParentPath removes the trailing trimSegments components from p.
//
// ParentPath(p, 0) is the canonical form of p, so a trailing separator makes
// no difference and repeated zero trims are idempotent. Trimming past the
// first component yields "/" for absolute paths and "" for relative ones.
// An empty path always yields "". Negative trims count as zero.
func ParentPath(p string, trimSegments int) string {
	p = Canonical(p)
	if p == "" {
		return ""
	}
	for i := 0; i < trimSegments; i++ {
		if p == Separator {
			return Separator
		}
		idx := strings.LastIndex(p, Separator)
		switch {
		case idx < 0:
			return ""
		case idx == 0:
			p = Separator
		default:
			p = p[:idx]
		}
	}
	return p
}

// Join appends name to parent with a single separator.
func Join(parent, name string) string {
	if parent == "" {
		return Canonical(name)
	}
	return path.Join(parent, name)
}

// Base returns the last component of p ("/" for the root, "" for empty).
func Base(p string) string {
	p = Canonical(p)
	if p == "" {
		return ""
	}
	return path.Base(p)
}

// IsWithin reports whether p equals ancestor or lies below it.
func IsWithin(p, ancestor string) bool {
	p, ancestor = Canonical(p), Canonical(ancestor)
	if p == "" || ancestor == "" {
		return false
	}
	if p == ancestor || ancestor == Separator && strings.HasPrefix(p, Separator) {
		return true
	}
	return strings.HasPrefix(p, ancestor+Separator)
}

// ValidName reports whether name can be used as a single path component.
func ValidName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, "/\\")
}
