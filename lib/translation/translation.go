package translation

import (
	"strings"

	"github.com/leonelquinteros/gotext"
)

// Configure loads the "default" domain for lang from localesPath.
// Values such as "en_US.UTF-8" are reduced to their language part.
func Configure(localesPath, lang string) {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if i := strings.IndexAny(lang, "_.-"); i > 0 {
		lang = lang[:i]
	}
	if lang == "" {
		lang = "en"
	}
	gotext.Configure(localesPath, lang, "default")
}

func GetLanguage() string {
	lang := gotext.GetLanguage()

	if lang == "und" || lang == "" {
		return "en"
	}

	return lang
}

// Translate returns the translation of msgID, or msgID itself when the
// active locale has none. English texts are used as message ids.
func Translate(msgID string, vars ...interface{}) string {
	return gotext.Get(msgID, vars...)
}
