package localize

import (
	"errors"
	"net/http"
	"sync"

	"github.com/gateswong/wowplaybook/internal/wowhead"
)

// StorageKey is the key the language preference is stored under, both in
// browser localStorage and in the preview server's cookie.
const StorageKey = "wowhead-language"

// Storage reads the stored language preference.
type Storage interface {
	// Get returns the value for key and whether it was present.
	Get(key string) (string, bool, error)
}

// ResolvePreferredLocale maps the stored preference to a Wowhead locale.
// Missing, unknown and unreadable values all resolve to the default.
func ResolvePreferredLocale(store Storage) wowhead.Locale {
	if store == nil {
		return wowhead.DefaultLocale
	}
	v, ok, err := store.Get(StorageKey)
	if err != nil || !ok {
		return wowhead.DefaultLocale
	}
	return wowhead.LocaleFor(v)
}

// MemoryStorage is an in-process Storage.
type MemoryStorage struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: make(map[string]string)}
}

func (m *MemoryStorage) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryStorage) Set(key, value string) {
	m.mu.Lock()
	m.values[key] = value
	m.mu.Unlock()
}

func (m *MemoryStorage) Delete(key string) {
	m.mu.Lock()
	delete(m.values, key)
	m.mu.Unlock()
}

// LanguageStorage always reports a fixed language. Used when the build or
// a CLI flag pins the locale.
type LanguageStorage wowhead.Language

func (s LanguageStorage) Get(key string) (string, bool, error) {
	if key != StorageKey || s == "" {
		return "", false, nil
	}
	return string(s), true, nil
}

// CookieStorage reads the preference from request cookies.
type CookieStorage struct {
	Request *http.Request
}

func (c CookieStorage) Get(key string) (string, bool, error) {
	if c.Request == nil {
		return "", false, nil
	}
	cookie, err := c.Request.Cookie(key)
	if errors.Is(err, http.ErrNoCookie) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return cookie.Value, true, nil
}

// PreferenceCookie returns the cookie that stores lang for a year.
func PreferenceCookie(lang wowhead.Language) *http.Cookie {
	return &http.Cookie{
		Name:     StorageKey,
		Value:    string(lang),
		Path:     "/",
		MaxAge:   365 * 24 * 60 * 60,
		SameSite: http.SameSiteLaxMode,
	}
}
