// Package textutil renders raw DICOM string values for human-facing output.
package textutil

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DisplayPersonName renders a DICOM person name for table output: the caret
// component separators become "Family, Given Middle" order and shouting
// capitals are folded to title case. Values without carets pass through with
// only the case fold. Blank stays blank.
func DisplayPersonName(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}

	caser := cases.Title(language.Und)
	components := strings.Split(trimmed, "^")
	for i, component := range components {
		components[i] = caser.String(strings.TrimSpace(component))
	}

	family := components[0]
	rest := joinNonBlank(components[1:], " ")
	switch {
	case family == "":
		return rest
	case rest == "":
		return family
	}
	return family + ", " + rest
}

// DisplaySex expands the single-letter sex codes; unknown codes pass through.
func DisplaySex(value string) string {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "M":
		return "Male"
	case "F":
		return "Female"
	case "O":
		return "Other"
	}
	return strings.TrimSpace(value)
}

// DisplayDate renders a DICOM DA value (YYYYMMDD) as YYYY-MM-DD; anything
// else passes through untouched.
func DisplayDate(value string) string {
	trimmed := strings.TrimSpace(value)
	if len(trimmed) != 8 || !allDigits(trimmed) {
		return trimmed
	}
	return trimmed[:4] + "-" + trimmed[4:6] + "-" + trimmed[6:]
}

func joinNonBlank(parts []string, sep string) string {
	kept := parts[:0]
	for _, part := range parts {
		if part != "" {
			kept = append(kept, part)
		}
	}
	return strings.Join(kept, sep)
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
