// Package textutil normalizes user-supplied text for lookups and matching.
package textutil

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Lower returns s lower-cased with Unicode rules.
func Lower(s string) string {
	return cases.Lower(language.Und).String(s)
}

// NormalizeEmail trims and lower-cases an email address for storage and lookup.
func NormalizeEmail(email string) string {
	return Lower(strings.TrimSpace(email))
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// LikePattern builds a case-insensitive substring pattern for a LIKE ... ESCAPE '\'
// clause. The search text is matched literally.
func LikePattern(search string) string {
	return "%" + likeEscaper.Replace(Lower(search)) + "%"
}
