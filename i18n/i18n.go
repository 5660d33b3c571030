// Package i18n holds the French and English labels shown to operators.
package i18n

import "strings"

const DefaultLang = "fr"

var catalog = map[string]map[string]string{
	"fr": {
		"required":             "Requis",
		"must_be_positive":     "Doit être positif",
		"must_not_be_negative": "Ne doit pas être négatif",
		"too_long":             "Trop long",
		"out_of_range":         "Hors limites",

		"parts_sans_mouvements":        "Parts sans mouvement associé",
		"mouvements_sans_actes":        "Mouvements sans acte associé",
		"parts_sans_actionnaires":      "Parts dont l'actionnaire n'existe plus",
		"mouvements_sans_actionnaires": "Mouvements dont l'actionnaire n'existe plus",
	},
	"en": {
		"required":             "Required",
		"must_be_positive":     "Must be positive",
		"must_not_be_negative": "Must not be negative",
		"too_long":             "Too long",
		"out_of_range":         "Out of range",

		"parts_sans_mouvements":        "Shares without a movement",
		"mouvements_sans_actes":        "Movements without a legal act",
		"parts_sans_actionnaires":      "Shares whose shareholder no longer exists",
		"mouvements_sans_actionnaires": "Movements whose shareholder no longer exists",
	},
}

// DetectLanguage picks a supported language from an Accept-Language style value.
func DetectLanguage(accept string) string {
	for _, part := range strings.Split(accept, ",") {
		tag := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		if tag == "" {
			continue
		}
		base := strings.ToLower(strings.SplitN(tag, "-", 2)[0])
		if _, ok := catalog[base]; ok {
			return base
		}
	}
	return DefaultLang
}

// T translates code, falling back to French then to the code itself.
func T(lang, code string) string {
	if msgs, ok := catalog[strings.ToLower(lang)]; ok {
		if s, ok := msgs[code]; ok {
			return s
		}
	}
	if s, ok := catalog[DefaultLang][code]; ok {
		return s
	}
	return code
}
