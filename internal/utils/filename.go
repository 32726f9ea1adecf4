// internal/utils/filename.go
package utils

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

	windowsDeviceNames = map[string]bool{
		"CON": true, "PRN": true, "AUX": true, "NUL": true,
		"COM1": true, "COM2": true, "COM3": true, "COM4": true, "COM5": true,
		"COM6": true, "COM7": true, "COM8": true, "COM9": true,
		"LPT1": true, "LPT2": true, "LPT3": true, "LPT4": true, "LPT5": true,
		"LPT6": true, "LPT7": true, "LPT8": true, "LPT9": true,
	}
)

// SecureFilename reduces a client-supplied filename to a flat ASCII name that
// is safe to use inside the upload directory. The result may be empty.
func SecureFilename(name string) string {
	decomposed := norm.NFKD.String(name)

	var b strings.Builder
	for _, r := range decomposed {
		if r < 0x80 {
			b.WriteRune(r)
		}
	}
	ascii := b.String()

	ascii = strings.NewReplacer("/", " ", `\`, " ").Replace(ascii)
	joined := strings.Join(strings.Fields(ascii), "_")
	cleaned := strings.Trim(unsafeFilenameChars.ReplaceAllString(joined, ""), "._")

	if cleaned != "" {
		stem := strings.ToUpper(strings.SplitN(cleaned, ".", 2)[0])
		if windowsDeviceNames[stem] {
			cleaned = "_" + cleaned
		}
	}
	return cleaned
}

// HasAllowedExtension checks the text after the last dot, case-insensitively.
func HasAllowedExtension(name string, allowed []string) bool {
	idx := strings.LastIndex(name, ".")
	if idx < 0 {
		return false
	}

	ext := strings.ToLower(name[idx+1:])
	for _, a := range allowed {
		if ext == a {
			return true
		}
	}
	return false
}
