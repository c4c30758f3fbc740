package wowhead

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const (
	// Host is the Wowhead domain; links point at <locale>.Host.
	Host = "wowhead.com"

	// LinkClass marks rendered reference anchors.
	LinkClass = "wowhead-link"

	AttrData   = "data-wowhead"
	AttrType   = "data-wowhead-type"
	AttrID     = "data-wowhead-id"
	AttrRename = "data-wh-rename-link"

	domainParam = "&domain="
)

// Link is the anchor a Reference renders to.
type Link struct {
	Href string
	Type ResourceType
	ID   string
	// Data is the widget metadata: type=id[&extra]&domain=locale.
	Data string
	// Rename lets the widget replace the visible text with the entity name.
	Rename bool
	Text   string
}

// NewLink builds the rendered form of ref for the given locale.
func NewLink(ref Reference, locale Locale) Link {
	data := fmt.Sprintf("%s=%s", ref.Type, ref.ID)
	if ref.ExtraInfo != "" {
		data += "&" + ref.ExtraInfo
	}
	data += domainParam + string(locale)

	text := ref.DisplayName
	if text == "" {
		text = ref.Abbrev + "=" + ref.ID
	}

	return Link{
		Href:   URL(locale, ref.Type, ref.ID),
		Type:   ref.Type,
		ID:     ref.ID,
		Data:   data,
		Rename: !(ref.ForceText && ref.HasDisplayName()),
		Text:   text,
	}
}

// URL returns the entity page on the given regional mirror.
func URL(locale Locale, t ResourceType, id string) string {
	return fmt.Sprintf("https://%s.%s/%s=%s", locale, Host, t, id)
}

// RenameAttr formats the rename flag the way the widget expects it.
func (l Link) RenameAttr() string {
	return strconv.FormatBool(l.Rename)
}

var domainPattern = regexp.MustCompile(`&domain=[^&]*`)

// SetDomain replaces any locale parameter in a metadata string with a
// single one for locale, appended at the end.
func SetDomain(data string, locale Locale) string {
	return domainPattern.ReplaceAllString(data, "") + domainParam + string(locale)
}

// DomainCount reports how many locale parameters a metadata string carries.
func DomainCount(data string) int {
	return strings.Count(data, domainParam)
}
