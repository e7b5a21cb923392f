package utils

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	// Characters invalid in filenames on most filesystems, plus ';' which
	// would end a Content-Disposition parameter
	invalidFilenameChars = regexp.MustCompile(`[<>:"/\\|?*;]`)
	multipleSpaces       = regexp.MustCompile(`\s+`)
)

// maxFilenameRunes leaves room for an extension within the usual 255 limit.
const maxFilenameRunes = 200

// SanitizeFilename turns a book title into a safe download filename stem.
func SanitizeFilename(name string) string {
	name = invalidFilenameChars.ReplaceAllString(name, "")
	name = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, name)
	name = multipleSpaces.ReplaceAllString(name, " ")
	name = strings.TrimSpace(name)

	if runes := []rune(name); len(runes) > maxFilenameRunes {
		name = strings.TrimSpace(string(runes[:maxFilenameRunes]))
	}

	if name == "" {
		name = "cover"
	}
	return name
}
