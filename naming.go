package recolor

import (
	"crypto/rand"
	"strings"
	"time"
	"unicode"

	"github.com/oklog/ulid/v2"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// maxBaseName bounds the readable part of a generated name.
const maxBaseName = 48

// UniqueName derives a host asset name from an original asset name plus a
// random disambiguating suffix, e.g. "Brick Wall" -> "Brick_Wall_01j9x2...".
//
// The base is decomposed (NFKD) with combining marks dropped, and
// characters outside [A-Za-z0-9_-] are replaced with '_'.
func UniqueName(base string) string {
	return sanitizeName(base) + "_" + strings.ToLower(newSuffix())
}

func newSuffix() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}

func sanitizeName(base string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	s, _, err := transform.String(t, base)
	if err != nil {
		s = base
	}

	var b strings.Builder
	for _, r := range s {
		switch {
		case r < 128 && (unicode.IsLetter(r) || unicode.IsDigit(r)), r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
		if b.Len() >= maxBaseName {
			break
		}
	}
	out := strings.Trim(b.String(), "_")
	if out == "" {
		return "asset"
	}
	return out
}
