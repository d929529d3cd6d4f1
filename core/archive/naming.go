package archive

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/trezcool/schooldocs/core/document"
)

const (
	fallbackTitle = "document"
	readmeName    = "README.txt"
)

// sanitize makes `s` usable as a single zip path element, or returns `fallback`.
func sanitize(s, fallback string) string {
	s = strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || unicode.IsControl(r) {
			return '_'
		}
		return r
	}, strings.TrimSpace(s))
	if strings.Trim(s, "._ ") == "" {
		return fallback
	}
	return s
}

// entryName returns the base name and extension of a document's archive entry.
// The extension is the stored one only: names must not depend on OriginalName or MimeType.
func entryName(doc document.Document) (base, ext string) {
	return sanitize(doc.DisplayTitle(), fallbackTitle), sanitize(doc.StoredExtension(), document.DefaultExtension)
}

// nameRegistry hands out unique entry names. Names compare case-insensitively since
// most extractors write to case-insensitive file systems.
type nameRegistry struct {
	used map[string]struct{}
}

func newNameRegistry() *nameRegistry {
	return &nameRegistry{used: make(map[string]struct{})}
}

// claim returns "{base}.{ext}", or "{base} (n).{ext}" with the smallest n >= 2 not yet used.
func (r *nameRegistry) claim(base, ext string) string {
	name := base + "." + ext
	for n := 2; r.taken(name); n++ {
		name = base + " (" + strconv.Itoa(n) + ")." + ext
	}
	r.used[strings.ToLower(name)] = struct{}{}
	return name
}

func (r *nameRegistry) taken(name string) bool {
	_, ok := r.used[strings.ToLower(name)]
	return ok
}
