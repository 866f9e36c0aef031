package filebox

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxFilenameLength is the longest filename accepted, in bytes.
const MaxFilenameLength = 255

// ReservedPrefix starts the names of in-flight temp files on the server and
// in client download directories. No stored file may carry it.
const ReservedPrefix = ".filebox-"

// IsValidFilename reports whether name can be used as a file identifier.
// Filenames map directly to entries in the flat blob directory, so it checks
// that the name:
//   - is not empty, "." or ".."
//   - contains no path separators ("/" or "\")
//   - is valid UTF-8 and at most MaxFilenameLength bytes
//   - contains no NUL, control characters or DEL
//   - does not begin or end with whitespace
//   - does not start with ReservedPrefix
func IsValidFilename(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}

	if len(name) > MaxFilenameLength {
		return false
	}

	if strings.HasPrefix(name, ReservedPrefix) {
		return false
	}

	if strings.ContainsAny(name, `/\`) {
		return false
	}

	if !utf8.ValidString(name) {
		return false
	}

	for _, r := range name {
		if r < 0x20 || r == 0x7f {
			return false
		}
	}

	first, _ := utf8.DecodeRuneInString(name)
	last, _ := utf8.DecodeLastRuneInString(name)
	if unicode.IsSpace(first) || unicode.IsSpace(last) {
		return false
	}

	return true
}
