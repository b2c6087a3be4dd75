package export

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var reservedWindowsNames = map[string]bool{
	"CON": true, "PRN": true, "AUX": true, "NUL": true,
	"COM1": true, "COM2": true, "COM3": true, "COM4": true, "COM5": true,
	"COM6": true, "COM7": true, "COM8": true, "COM9": true,
	"LPT1": true, "LPT2": true, "LPT3": true, "LPT4": true, "LPT5": true,
	"LPT6": true, "LPT7": true, "LPT8": true, "LPT9": true,
}

// nameNormalizer folds a display name to its NFC form and strips non-
// printable/control runes before the character-replacement pass below
// (spec.md §4.8 "sanitize the filename"; SPEC_FULL.md §B assigns
// golang.org/x/text/unicode/norm + golang.org/x/text/runes to this step).
var nameNormalizer = transform.Chain(
	norm.NFC,
	runes.Remove(runes.Predicate(func(r rune) bool { return unicode.IsControl(r) })),
)

// ResolveName expands template's {name}/{gain_db} tokens against stem and
// gainDB, then sanitizes the result into a filesystem-safe stem
// (spec.md §4.8 "Name resolution" step 1).
func ResolveName(template, stem string, gainDB float64, hasGain bool) string {
	if template == "" {
		template = "{name}"
	}
	gainToken := ""
	if hasGain {
		gainToken = formatGainToken(gainDB)
	}
	expanded := strings.NewReplacer(
		"{name}", stem,
		"{gain_db}", gainToken,
	).Replace(template)
	return sanitizeFilename(expanded)
}

func formatGainToken(gainDB float64) string {
	sign := "+"
	if gainDB < 0 {
		sign = "-"
		gainDB = -gainDB
	}
	return fmt.Sprintf("%s%sdB", sign, strconv.FormatFloat(gainDB, 'f', 1, 64))
}

// sanitizeFilename replaces Windows-reserved characters with "_", trims
// trailing dots/spaces, normalizes unicode, and appends "_" to a stem that
// collides with a reserved device name (spec.md §4.8 step 1).
func sanitizeFilename(stem string) string {
	normalized, _, err := transform.String(nameNormalizer, stem)
	if err != nil {
		normalized = stem
	}

	var b strings.Builder
	for _, r := range normalized {
		if strings.ContainsRune(`<>:"/\|?*`, r) {
			b.WriteRune('_')
		} else {
			b.WriteRune(r)
		}
	}
	out := strings.TrimRight(b.String(), ". ")
	if out == "" {
		out = "export"
	}

	if reservedWindowsNames[strings.ToUpper(out)] {
		out += "_"
	}
	return out
}

// ResolveExtension picks the output extension per spec.md §4.8 step 1:
// "per-item override → global override → source extension, validating
// against the supported list".
func ResolveExtension(perItemOverride, globalOverride, sourceExt string, supported map[string]bool) (string, bool) {
	for _, candidate := range []string{perItemOverride, globalOverride, sourceExt} {
		ext := strings.ToLower(strings.TrimPrefix(candidate, "."))
		if ext == "" {
			continue
		}
		if supported[ext] {
			return ext, true
		}
		return "", false
	}
	return "", false
}

// DestPath joins dir, the resolved stem, and ext into a final path.
func DestPath(dir, stem, ext string) string {
	return filepath.Join(dir, stem+"."+ext)
}
