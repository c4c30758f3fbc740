package wowhead

// ResourceType is the kind of game entity a reference points at.
type ResourceType string

const (
	Spell ResourceType = "spell"
	Item  ResourceType = "item"
	Quest ResourceType = "quest"
	Zone  ResourceType = "zone"
	NPC   ResourceType = "npc"
)

// resourceTypes maps the abbreviation written in a reference token to its
// resource type. Abbreviations missing from this table are not references.
var resourceTypes = map[string]ResourceType{
	"s": Spell,
	"i": Item,
	"q": Quest,
	"z": Zone,
	"n": NPC,
}

// LookupType resolves a token abbreviation such as "s" to its resource type.
func LookupType(abbrev string) (ResourceType, bool) {
	t, ok := resourceTypes[abbrev]
	return t, ok
}

// Locale is the subdomain of the regional Wowhead mirror a link points at.
type Locale string

const (
	LocaleCN  Locale = "cn"
	LocaleWWW Locale = "www"
	LocaleTW  Locale = "tw"
)

// DefaultLocale is used at render time and whenever no valid preference exists.
const DefaultLocale = LocaleCN

// Language is the reader-facing language code stored as the preference.
type Language string

const (
	LanguageCN Language = "cn"
	LanguageEN Language = "en"
	LanguageTW Language = "tw"
)

// DefaultLanguage is the language assumed when no preference is stored.
const DefaultLanguage = LanguageCN

var languageLocales = map[Language]Locale{
	LanguageCN: LocaleCN,
	LanguageEN: LocaleWWW,
	LanguageTW: LocaleTW,
}

// Languages lists the supported languages in display order.
func Languages() []Language {
	return []Language{LanguageCN, LanguageEN, LanguageTW}
}

// IsLanguage reports whether s is one of the supported language codes.
func IsLanguage(s string) bool {
	_, ok := languageLocales[Language(s)]
	return ok
}

// LocaleFor maps a stored language code to the Wowhead locale. Unknown or
// empty values resolve to DefaultLocale.
func LocaleFor(lang string) Locale {
	if l, ok := languageLocales[Language(lang)]; ok {
		return l
	}
	return DefaultLocale
}
