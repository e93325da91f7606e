package formats

import "strings"

var languageNames = map[string]string{
	"en": "English", "es": "Spanish", "fr": "French", "de": "German",
	"it": "Italian", "pt": "Portuguese", "ru": "Russian", "ja": "Japanese",
	"ko": "Korean", "zh": "Chinese", "ar": "Arabic", "hi": "Hindi",
	"tr": "Turkish", "nl": "Dutch", "pl": "Polish", "vi": "Vietnamese",
	"th": "Thai", "id": "Indonesian", "sv": "Swedish", "da": "Danish",
	"fi": "Finnish", "no": "Norwegian", "ro": "Romanian", "hu": "Hungarian",
	"cs": "Czech", "uk": "Ukrainian", "el": "Greek", "bg": "Bulgarian",
	"he": "Hebrew", "sk": "Slovak", "sr": "Serbian", "hr": "Croatian",
}

// LanguageName gives a display name for a language code, using only the primary subtag ("en" for "en-GB"), and
// falling back to the code itself.
func LanguageName(code string) string {
	primary := strings.SplitN(code, "-", 2)[0]
	if name, ok := languageNames[primary]; ok {
		return name
	}
	return code
}
