package export

import (
	"fmt"
	"os"
)

// ResolveConflict applies Conflict policy against an already-existing dst,
// returning the path to actually write to (possibly renamed), or skip=true
// if the item should be counted as a failure without writing
// (spec.md §4.8 "Conflict resolution on existing dst").
func ResolveConflict(dst string, policy ConflictPolicy) (resolved string, skip bool) {
	if _, err := os.Stat(dst); os.IsNotExist(err) {
		return dst, false
	}

	switch policy {
	case ConflictSkip:
		return "", true
	case ConflictOverwrite:
		return dst, false
	case ConflictRename:
		for n := 0; n <= 999; n++ {
			candidate := withSuffix(dst, n)
			if _, err := os.Stat(candidate); os.IsNotExist(err) {
				return candidate, false
			}
		}
		return "", true
	default:
		return dst, false
	}
}

func withSuffix(dst string, n int) string {
	ext := extOf(dst)
	stem := dst[:len(dst)-len(ext)]
	return fmt.Sprintf("%s_%02d%s", stem, n, ext)
}

func extOf(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '.' {
			return path[i:]
		}
		if path[i] == '/' || path[i] == '\\' {
			break
		}
	}
	return ""
}
