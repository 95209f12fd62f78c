// Package resume resolves stored resume references to storage objects and
// signs short-lived download links for them.
package resume

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

// DefaultPrefix is the namespace resume objects are uploaded under.
const DefaultPrefix = "resumes/"

// ParseReference turns a stored reference into an object name under prefix.
// The reference is either a bare object name ("resumes/jane_x1.pdf") or a URL
// whose path contains the namespace ("https://host/bucket/resumes/jane_x1.pdf?sig=...").
func ParseReference(reference, prefix string) (string, error) {
	ref := strings.TrimSpace(reference)
	if ref == "" {
		return "", fmt.Errorf("%w: empty reference", ErrInvalidReference)
	}
	if prefix == "" {
		prefix = DefaultPrefix
	}

	if strings.Contains(ref, "://") {
		u, err := url.Parse(ref)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidReference, err)
		}
		p := u.Path
		idx := strings.Index(p, "/"+prefix)
		if idx < 0 {
			return "", fmt.Errorf("%w: %q is not under %s", ErrInvalidReference, ref, prefix)
		}
		ref = p[idx+1:]
	}

	if !strings.HasPrefix(ref, prefix) || len(ref) == len(prefix) {
		return "", fmt.Errorf("%w: %q is not under %s", ErrInvalidReference, ref, prefix)
	}
	return ref, nil
}

// BaseName is the part of an object's file name used for fuzzy matching:
// the extension and anything after the first underscore are dropped, so
// "resumes/jane-doe_1712.pdf" yields "jane-doe".
func BaseName(name string) string {
	file := path.Base(name)
	if i := strings.Index(file, "."); i >= 0 {
		file = file[:i]
	}
	if i := strings.Index(file, "_"); i >= 0 {
		file = file[:i]
	}
	return file
}
