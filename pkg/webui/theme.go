package webui

import "time"

const (
	ThemeLight = "light"
	ThemeDark  = "dark"

	// themePrefKey is the persisted preference key.
	themePrefKey = "theme"

	// themeToastDuration is shorter than the default so the confirmation
	// gets out of the way quickly.
	themeToastDuration = 2500 * time.Millisecond
)

// PrefStore persists small key/value preferences across page loads. The
// browser backs this with localStorage.
type PrefStore interface {
	Get(key string) (string, bool)
	Set(key, value string)
}

// ThemeSurface is whatever part of the page the theme applies to. A page may
// have the app layout, the auth layout, both, or neither; the surface applies
// the theme to every root container present and ignores a missing toggle icon.
type ThemeSurface interface {
	ApplyTheme(theme string)
	SetToggleIcon(theme string)
}

// ThemeManager reads the persisted theme at load and flips it on demand.
type ThemeManager struct {
	store    PrefStore
	surface  ThemeSurface
	notifier *Notifier
}

// NewThemeManager wires a manager; notifier may be nil when confirmation
// toasts are not wanted.
func NewThemeManager(store PrefStore, surface ThemeSurface, notifier *Notifier) *ThemeManager {
	return &ThemeManager{
		store:    store,
		surface:  surface,
		notifier: notifier,
	}
}

// NormalizeTheme treats every value other than "dark" as "light".
func NormalizeTheme(theme string) string {
	if theme == ThemeDark {
		return ThemeDark
	}
	return ThemeLight
}

// Apply applies the (normalized) theme to the surface.
func (m *ThemeManager) Apply(theme string) {
	theme = NormalizeTheme(theme)
	m.surface.ApplyTheme(theme)
	m.surface.SetToggleIcon(theme)
}

// Load applies the persisted preference, defaulting to light.
func (m *ThemeManager) Load() {
	theme := ThemeLight
	if v, ok := m.store.Get(themePrefKey); ok {
		theme = NormalizeTheme(v)
	}
	m.Apply(theme)
}

// Toggle flips the persisted preference, re-applies it, and emits one
// confirmation toast for the resulting theme. It returns the new theme.
func (m *ThemeManager) Toggle() string {
	current := ThemeLight
	if v, ok := m.store.Get(themePrefKey); ok {
		current = NormalizeTheme(v)
	}

	next := ThemeDark
	if current == ThemeDark {
		next = ThemeLight
	}

	m.store.Set(themePrefKey, next)
	m.Apply(next)

	if m.notifier != nil {
		if next == ThemeDark {
			m.notifier.Notify("Dark theme enabled.", ToastInfo, "", themeToastDuration)
		} else {
			m.notifier.Notify("Light theme enabled.", ToastInfo, "", themeToastDuration)
		}
	}

	return next
}
