package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// familyNameRegex matches template family and variant identifiers.
var familyNameRegex = regexp.MustCompile(`^[A-Za-z0-9]([A-Za-z0-9._-]*[A-Za-z0-9])?$`)

// ValidateTemplateName validates a template family name for safety and correctness.
// Family names become file names in the flat-file store, so anything that
// could escape the template directory is rejected.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - No control characters
//   - No path separators or traversal sequences
//   - Maximum length of 128 characters
//   - Letters, digits, dot, dash and underscore only
func ValidateTemplateName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "template name cannot be empty")
	}

	if len(name) > 128 {
		return New(ErrCodeInvalidInput, "template name too long (max 128 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "template name contains invalid control characters")
		}
	}

	if strings.Contains(name, "..") || strings.ContainsAny(name, `/\`) {
		return New(ErrCodeInvalidInput, "template name contains path characters: %q", name)
	}

	if !familyNameRegex.MatchString(name) {
		return New(ErrCodeInvalidInput, "invalid template name: %q", name)
	}

	return nil
}

// ValidatePath validates a relative file path (e.g. an asset reference) for safety.
// It prevents path traversal attacks and ensures reasonable path length.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No absolute paths (must be relative)
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "path must be relative (cannot start with /)")
	}

	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}

	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}

	return nil
}

// ValidateTokenAssignment validates a "name=value" token flag.
// It returns the split name and value.
func ValidateTokenAssignment(s string) (name, value string, err error) {
	name, value, ok := strings.Cut(s, "=")
	name = strings.TrimSpace(name)
	value = strings.TrimSpace(value)
	if !ok || name == "" {
		return "", "", New(ErrCodeInvalidInput, "token must be name=value, got %q", s)
	}
	if strings.ContainsAny(name, " \t:") {
		return "", "", New(ErrCodeInvalidInput, "token name %q cannot contain spaces or colons", name)
	}
	return name, value, nil
}
