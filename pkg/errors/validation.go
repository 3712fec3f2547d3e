package errors

import (
	"path/filepath"
	"strings"
	"unicode"
)

// ValidatePrefix validates a DOM-id prefix for use in rendered diagrams.
// The prefix becomes part of element ids ("{prefix}-{index}") and of CSS
// selectors used for screenshot capture, so it must be a safe identifier.
//
// The validation rules are intentionally conservative:
//   - No empty prefixes
//   - Must start with an ASCII letter
//   - Only letters, digits, hyphens, and underscores
//   - Maximum length of 64 characters
func ValidatePrefix(prefix string) error {
	if prefix == "" {
		return New(ErrCodeInvalidConfig, "prefix cannot be empty")
	}

	if len(prefix) > 64 {
		return New(ErrCodeInvalidConfig, "prefix too long (max 64 characters)")
	}

	for i, r := range prefix {
		if i == 0 {
			if !unicode.IsLetter(r) || r > unicode.MaxASCII {
				return New(ErrCodeInvalidConfig, "prefix must start with an ASCII letter")
			}
			continue
		}
		switch {
		case unicode.IsLetter(r) && r <= unicode.MaxASCII:
		case unicode.IsDigit(r) && r <= unicode.MaxASCII:
		case r == '-' || r == '_':
		default:
			return New(ErrCodeInvalidConfig, "prefix contains invalid character: %q", r)
		}
	}

	return nil
}

// ValidateOutputPath validates a user-supplied output path.
// It rejects paths that escape upward or contain null bytes; absolute
// paths are allowed.
func ValidateOutputPath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "output path cannot be empty")
	}

	if strings.ContainsRune(path, '\x00') {
		return New(ErrCodeInvalidPath, "output path contains null byte")
	}

	clean := filepath.Clean(path)
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return New(ErrCodeInvalidPath, "output path escapes working directory: %s", path)
	}

	return nil
}
