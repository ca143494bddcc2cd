package language

import (
	"strings"

	xlang "golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Normalize converts a language code or name to its ISO 639-1 base form
// ("fra" -> "fr", "English" -> "en"). Returns empty string for unrecognized
// or empty input.
func Normalize(code string) string {
	trimmed := strings.ToLower(strings.TrimSpace(code))
	if trimmed == "" {
		return ""
	}
	tag, err := xlang.Parse(trimmed)
	if err != nil {
		return ""
	}
	base, confidence := tag.Base()
	if confidence == xlang.No {
		return ""
	}
	return base.String()
}

// DisplayName returns the English name for a language code, or the input
// unchanged when the code is not recognized.
func DisplayName(code string) string {
	normalized := Normalize(code)
	if normalized == "" {
		return code
	}
	return display.English.Languages().Name(xlang.Make(normalized))
}
