// Package token substitutes literal {name} placeholders in subject and
// body templates with values drawn from a form submission.
package token

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/formkit-labs/domainmail/internal/submission"
)

// dateLayout renders {submissionDate} as DD/MM/YYYY HH:MM.
const dateLayout = "02/01/2006 15:04"

// Replace substitutes tokens in template using the record's fields. Each
// display field is matched as {Display Name} and {DisplayName} (spaces
// removed); raw record keys are matched as {rawKey}; the literal tokens
// {formName} and {submissionDate} come last. Matching is case-insensitive
// and sequential in form order, so when two field names collide the first
// field wins: later replacements run against an already-substituted
// string. Unmatched tokens are left verbatim. An empty template yields an
// empty string.
func Replace(template string, rec submission.Record, now time.Time) string {
	if template == "" {
		return ""
	}

	result := template

	for _, f := range submission.ExtractFields(rec) {
		result = replaceFold(result, "{"+f.Name+"}", f.Value)
		noSpaces := strings.ReplaceAll(f.Name, " ", "")
		result = replaceFold(result, "{"+noSpaces+"}", f.Value)
	}

	for _, e := range rec.Entries() {
		result = replaceFold(result, "{"+e.Key+"}", e.Value.Flatten())
	}

	result = replaceFold(result, "{formName}", rec.FormName())
	result = replaceFold(result, "{submissionDate}", now.Format(dateLayout))

	return result
}

// replaceFold replaces every case-insensitive occurrence of token in s.
// Matching walks s rune by rune: case folding changes the UTF-8 length of
// some runes, so byte offsets into a lowered copy of s would not line up
// with s itself.
func replaceFold(s, token, repl string) string {
	if token == "" || s == "" {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))

	i := 0
	for i < len(s) {
		if n, ok := foldMatchLen(s[i:], token); ok {
			b.WriteString(repl)
			i += n
			continue
		}
		_, size := utf8.DecodeRuneInString(s[i:])
		b.WriteString(s[i : i+size])
		i += size
	}

	return b.String()
}

// foldMatchLen reports whether s starts with token under Unicode simple
// case folding, returning the byte length of the matched prefix of s.
func foldMatchLen(s, token string) (int, bool) {
	n := 0
	for _, tr := range token {
		r, size := utf8.DecodeRuneInString(s[n:])
		if size == 0 {
			return 0, false
		}
		if !runeFoldEq(r, tr) {
			return 0, false
		}
		n += size
	}
	return n, true
}

// runeFoldEq reports whether two runes are equal under simple case
// folding, matching the semantics of strings.EqualFold.
func runeFoldEq(a, b rune) bool {
	if a == b {
		return true
	}
	for r := unicode.SimpleFold(a); r != a; r = unicode.SimpleFold(r) {
		if r == b {
			return true
		}
	}
	return false
}
