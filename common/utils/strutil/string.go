package strutil

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/simplifiedchinese"
)

var reservedCharRe = regexp.MustCompile(`[<>:"/\\|?*]`)

// SanitizeFilename strips characters that are not safe in a filename and
// normalizes surrounding whitespace. It never returns path separators.
func SanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	name = reservedCharRe.ReplaceAllString(name, "")
	name = strings.Trim(name, ". ")
	return name
}

// DecodeMaybeGBK returns s decoded from GBK when it is not valid UTF-8.
// Some upstream servers send GBK-encoded filenames which would otherwise show
// up as mojibake.
func DecodeMaybeGBK(s string) string {
	if s == "" || utf8.ValidString(s) {
		return s
	}
	decoder := simplifiedchinese.GBK.NewDecoder()
	decoded, err := decoder.Bytes([]byte(s))
	if err != nil {
		return s
	}
	result := string(decoded)
	if utf8.ValidString(result) {
		return result
	}
	return s
}
