package aristote

import "strings"

// TranslationTarget returns the translation target paired with a source
// language: English sources are translated to French, everything else to
// English. An empty source means auto-detect with no translation target.
func TranslationTarget(sourceLanguage string) string {
	switch strings.ToLower(strings.TrimSpace(sourceLanguage)) {
	case "":
		return ""
	case "en":
		return "fr"
	default:
		return "en"
	}
}
