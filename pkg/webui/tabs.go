package webui

// TabView is the pill/section surface the switcher drives.
type TabView interface {
	// DeactivateAll clears the active state from every pill and section.
	DeactivateAll()
	// ActivatePill marks the pill declaring the given target as active.
	ActivatePill(target string)
	// ActivateSection shows the section whose identifier matches target.
	ActivateSection(target string)
	// ScrollToTop smoothly scrolls the viewport back to the top.
	ScrollToTop()
}

// TabSwitcher toggles visibility among a fixed set of page sections. Exactly
// one pill and one section are active among those wired; the initial active
// state is whatever the markup provides.
type TabSwitcher struct {
	view   TabView
	active string
}

func NewTabSwitcher(view TabView) *TabSwitcher {
	return &TabSwitcher{view: view}
}

// Select activates the pill/section pair for target. A pill that declares no
// target is a no-op.
func (s *TabSwitcher) Select(target string) {
	if target == "" {
		return
	}
	s.view.DeactivateAll()
	s.view.ActivatePill(target)
	s.view.ActivateSection(target)
	s.view.ScrollToTop()
	s.active = target
}

// Active returns the most recently selected target, or "" before any click.
func (s *TabSwitcher) Active() string {
	return s.active
}
