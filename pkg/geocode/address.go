package geocode

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldTransformer strips combining marks after NFD decomposition, turning
// "Đà Nẵng" into "Đa Nang"; the đ/Đ pair is not a combining form and is
// replaced separately.
var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

var dReplacer = strings.NewReplacer("đ", "d", "Đ", "D")

// FoldDiacritics returns s with Vietnamese diacritics removed. On transform
// failure the input is returned unchanged.
func FoldDiacritics(s string) string {
	folded, _, err := transform.String(foldTransformer, s)
	if err != nil {
		return s
	}
	return dReplacer.Replace(folded)
}
