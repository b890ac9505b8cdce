package webui

import (
	"reflect"
	"testing"
)

type fakeTabView struct {
	calls []string
}

func (v *fakeTabView) DeactivateAll()                { v.calls = append(v.calls, "deactivate") }
func (v *fakeTabView) ActivatePill(target string)    { v.calls = append(v.calls, "pill:"+target) }
func (v *fakeTabView) ActivateSection(target string) { v.calls = append(v.calls, "section:"+target) }
func (v *fakeTabView) ScrollToTop()                  { v.calls = append(v.calls, "scroll") }

func TestSelectActivatesPillAndSection(t *testing.T) {
	view := &fakeTabView{}
	s := NewTabSwitcher(view)

	s.Select("history")

	want := []string{"deactivate", "pill:history", "section:history", "scroll"}
	if !reflect.DeepEqual(view.calls, want) {
		t.Fatalf("calls = %v, want %v", view.calls, want)
	}
	if s.Active() != "history" {
		t.Errorf("active = %q, want history", s.Active())
	}
}

func TestSelectWithoutTargetIsNoop(t *testing.T) {
	view := &fakeTabView{}
	s := NewTabSwitcher(view)

	s.Select("")

	if len(view.calls) != 0 {
		t.Fatalf("no-op pill touched the view: %v", view.calls)
	}
	if s.Active() != "" {
		t.Errorf("active = %q, want empty", s.Active())
	}
}

func TestSelectDeactivatesPreviousSelection(t *testing.T) {
	view := &fakeTabView{}
	s := NewTabSwitcher(view)

	s.Select("scanner")
	s.Select("history")

	// Every switch starts by clearing all active state so only one
	// pill/section pair is active at a time.
	want := []string{
		"deactivate", "pill:scanner", "section:scanner", "scroll",
		"deactivate", "pill:history", "section:history", "scroll",
	}
	if !reflect.DeepEqual(view.calls, want) {
		t.Fatalf("calls = %v, want %v", view.calls, want)
	}
	if s.Active() != "history" {
		t.Errorf("active = %q, want history", s.Active())
	}
}
