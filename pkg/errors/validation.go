package errors

import (
	"strings"
	"unicode"
)

// ValidateArtifactID validates a Maven artifactId before it is spliced into
// repository paths. It rejects values that could escape the candidate
// directory or break a tree expression.
func ValidateArtifactID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidCoordinate, "artifactId cannot be empty")
	}
	if len(id) > 256 {
		return New(ErrCodeInvalidCoordinate, "artifactId too long (max 256 characters)")
	}
	for _, r := range id {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidCoordinate, "artifactId contains whitespace or control characters")
		}
	}
	for _, pattern := range []string{"..", "/", "\\", ":"} {
		if strings.Contains(id, pattern) {
			return New(ErrCodeInvalidCoordinate, "artifactId contains invalid characters: %q", pattern)
		}
	}
	return nil
}

// ValidatePath validates a path within a repository.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No parent directory references
//   - Must be relative (no leading slash)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}
	if len(path) > 500 {
		return New(ErrCodeInvalidPath, "path too long (max 500 characters)")
	}
	for _, r := range path {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid control characters")
		}
	}
	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "path must be relative")
	}
	for _, seg := range strings.Split(path, "/") {
		if seg == ".." {
			return New(ErrCodeInvalidPath, "path cannot reference parent directories")
		}
	}
	return nil
}
