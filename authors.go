package feedstats

import "strings"

// AuthorIndex maps lower-cased handles to the most recently seen profile.
//
// It is filled while normalizing and later used to resolve bare @mentions.
// The zero value is an empty index. An AuthorIndex is not safe for concurrent use.
type AuthorIndex struct {
	authors     map[string]Author
	placeholder map[string]bool
}

// NewAuthorIndex returns an empty index.
func NewAuthorIndex() *AuthorIndex {
	return &AuthorIndex{
		authors:     make(map[string]Author),
		placeholder: make(map[string]bool),
	}
}

// Put records a sighting of a. The last sighting wins.
func (idx *AuthorIndex) Put(a Author) {
	key := handleKey(a.Handle)
	if key == "" {
		return
	}
	idx.init()
	idx.authors[key] = a
	delete(idx.placeholder, key)
}

func (idx *AuthorIndex) init() {
	if idx.authors == nil {
		idx.authors = make(map[string]Author)
		idx.placeholder = make(map[string]bool)
	}
}

// putPlaceholder records a profile synthesized from partial data. It never
// replaces a real sighting.
func (idx *AuthorIndex) putPlaceholder(a Author) {
	key := handleKey(a.Handle)
	if key == "" {
		return
	}
	if _, ok := idx.authors[key]; ok && !idx.placeholder[key] {
		return
	}
	idx.init()
	idx.authors[key] = a
	idx.placeholder[key] = true
}

// Lookup returns the profile for handle, compared case-insensitively.
func (idx *AuthorIndex) Lookup(handle string) (Author, bool) {
	if idx == nil {
		return Author{}, false
	}
	a, ok := idx.authors[handleKey(handle)]
	return a, ok
}

// Resolve returns the indexed profile for handle or a placeholder that uses
// the handle as display name.
func (idx *AuthorIndex) Resolve(handle string) Author {
	if a, ok := idx.Lookup(handle); ok {
		return a
	}
	return placeholderAuthor(handle)
}

// Len returns the number of indexed handles.
func (idx *AuthorIndex) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.authors)
}

// Authors returns a copy of the index keyed by lower-cased handle.
func (idx *AuthorIndex) Authors() map[string]Author {
	out := make(map[string]Author, idx.Len())
	if idx == nil {
		return out
	}
	for k, v := range idx.authors {
		out[k] = v
	}
	return out
}

func placeholderAuthor(handle string) Author {
	return Author{Handle: handle, DisplayName: handle}
}

func handleKey(handle string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(handle), "@"))
}
