// Package stopwords provides language-specific stop-word sets.
package stopwords

import (
	_ "embed"
	"strings"
)

var (
	//go:embed de.txt
	germanList string
	//go:embed en.txt
	englishList string
)

// Set is a collection of lower-cased stop words.
type Set map[string]struct{}

var (
	German  = parse(germanList)
	English = parse(englishList)
)

// ForLanguage returns the set for an ISO 639-1 code. Unknown codes fall back to German.
func ForLanguage(lang string) Set {
	switch strings.ToLower(lang) {
	case "en":
		return English
	default:
		return German
	}
}

// Contains reports whether word is a stop word. A nil Set contains nothing.
func (s Set) Contains(word string) bool {
	_, ok := s[strings.ToLower(word)]
	return ok
}

// With returns a copy of s extended with words.
func (s Set) With(words ...string) Set {
	out := make(Set, len(s)+len(words))
	for w := range s {
		out[w] = struct{}{}
	}
	for _, w := range words {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			out[w] = struct{}{}
		}
	}
	return out
}

func parse(list string) Set {
	s := make(Set)
	for _, line := range strings.Split(list, "\n") {
		if w := strings.TrimSpace(line); w != "" && !strings.HasPrefix(w, "#") {
			s[strings.ToLower(w)] = struct{}{}
		}
	}
	return s
}
