package repository

import "strings"

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern turns free text into a LIKE pattern matching it as a
// substring.  Wildcards typed by the user match literally.  The
// utf8mb4_unicode_ci collation of the text columns makes the match
// case-insensitive; LOWER() on both sides keeps it so for binary
// collations too.
func containsPattern(q string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(q)) + "%"
}
