package versioning

import (
	"strings"

	ferrors "github.com/quincunx271/nickeltools/internal/foundation/errors"
)

// Literal renders entries as a list literal that is valid in both Python and
// JavaScript: [['main', 'git-main'], ['0.0.3', 'latest'], ...].
func Literal(entries []Entry) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, e := range entries {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('[')
		b.WriteString(quote(e.Value))
		b.WriteString(", ")
		b.WriteString(quote(e.Label))
		b.WriteByte(']')
	}
	b.WriteByte(']')
	return b.String()
}

func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	return "'" + s + "'"
}

// RenderSelector substitutes the version list into the selector script. Only
// the exact marker text changes.
func RenderSelector(template string, entries []Entry) (string, error) {
	if !strings.Contains(template, SelectorMarker) {
		return "", ferrors.ValidationError("selector template has no version marker").
			WithContext("marker", SelectorMarker).Build()
	}
	return strings.ReplaceAll(template, SelectorMarker, "const versions = "+Literal(entries)), nil
}

// RenderIndex points the root redirect page at the latest version.
func RenderIndex(template string, entries []Entry) (string, error) {
	latest, ok := Latest(entries)
	if !ok {
		return "", ferrors.ValidationError("no published versions to redirect to").Build()
	}
	return strings.ReplaceAll(template, IndexMarker, latest), nil
}
