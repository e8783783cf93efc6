package documents

import (
	"fmt"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// maxNameAttempts bounds the "name (N).ext" search.
const maxNameAttempts = 32

// validateDisplayName rejects names that cannot be a single path element.
func validateDisplayName(name string) error {
	trimmed := strings.TrimSpace(name)
	switch {
	case trimmed == "":
		return fmt.Errorf("%w: empty", ErrInvalidName)
	case trimmed == "." || trimmed == "..":
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	case strings.ContainsAny(name, "/\\\x00"):
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidName, name)
	}
	return nil
}

// withExtension appends the MIME type's canonical extension when the name
// has none. Directories and unknown types are left alone.
func withExtension(name, mimeType string) string {
	if mimeType == MimeTypeDir || path.Ext(name) != "" {
		return name
	}
	m := mimetype.Lookup(mimeType)
	if m == nil {
		return name
	}
	return name + m.Extension()
}

// uniqueName picks the first free name among name, "base (1).ext",
// "base (2).ext", ... Directory names are never split at a dot.
func uniqueName(name string, isDir bool, exists func(string) bool) (string, error) {
	if !exists(name) {
		return name, nil
	}

	base, ext := name, ""
	if !isDir {
		ext = path.Ext(name)
		base = strings.TrimSuffix(name, ext)
	}

	for i := 1; i < maxNameAttempts; i++ {
		candidate := fmt.Sprintf("%s (%d)%s", base, i, ext)
		if !exists(candidate) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no free name for %q after %d attempts", name, maxNameAttempts)
}
