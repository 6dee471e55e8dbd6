package utils

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// strips spaces and normalizes to NFC so names typed on a phone match
// names read from a spreadsheet
func CleanupString(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// same as CleanupString, but blank for the "nan" placeholders spreadsheet
// exports leave in empty cells
func CleanupName(s string) string {
	s = CleanupString(s)
	switch s {
	case "nan", "NaN":
		return ""
	}
	return s
}
