package webui

import (
	"testing"
	"time"
)

// fakeToastView records every call the notifier makes.
type fakeToastView struct {
	containers int
	removals   int
	inserted   []Toast
	removed    []int
}

func (v *fakeToastView) CreateContainer()    { v.containers++ }
func (v *fakeToastView) RemoveContainer()    { v.removals++ }
func (v *fakeToastView) InsertToast(t Toast) { v.inserted = append(v.inserted, t) }
func (v *fakeToastView) RemoveToast(id int)  { v.removed = append(v.removed, id) }

// manualScheduler collects scheduled callbacks so tests fire them explicitly.
type manualScheduler struct {
	pending []scheduled
}

type scheduled struct {
	d        time.Duration
	fn       func()
	canceled bool
}

func (s *manualScheduler) schedule(d time.Duration, fn func()) func() {
	i := len(s.pending)
	s.pending = append(s.pending, scheduled{d: d, fn: fn})
	return func() { s.pending[i].canceled = true }
}

// fire runs every pending callback that has not been canceled.
func (s *manualScheduler) fire() {
	for i := range s.pending {
		if !s.pending[i].canceled {
			s.pending[i].fn()
		}
	}
}

func TestNotifyEmptyMessageIsNoop(t *testing.T) {
	view := &fakeToastView{}
	n := NewNotifier(view)
	if id := n.Notify("", ToastError, "", 0); id != 0 {
		t.Fatalf("Notify(\"\") = %d, want 0", id)
	}
	if view.containers != 0 || len(view.inserted) != 0 {
		t.Errorf("empty notify touched the view: %+v", view)
	}
}

func TestNotifyDefaults(t *testing.T) {
	view := &fakeToastView{}
	n := NewNotifier(view)

	n.Notify("hello", "", "", 0)
	if len(view.inserted) != 1 {
		t.Fatalf("inserted %d toasts, want 1", len(view.inserted))
	}
	got := view.inserted[0]
	if got.Type != ToastInfo {
		t.Errorf("type = %q, want info", got.Type)
	}
	if got.Title != "Notice" {
		t.Errorf("title = %q, want Notice", got.Title)
	}
	if got.Duration != DefaultToastDuration {
		t.Errorf("duration = %v, want %v", got.Duration, DefaultToastDuration)
	}
}

func TestNotifyUnknownTypeFallsBackToInfo(t *testing.T) {
	view := &fakeToastView{}
	n := NewNotifier(view)
	n.Notify("hello", ToastType("catastrophe"), "", 0)
	if view.inserted[0].Type != ToastInfo {
		t.Errorf("type = %q, want info", view.inserted[0].Type)
	}
}

func TestNotifyDefaultTitlesPerType(t *testing.T) {
	want := map[ToastType]string{
		ToastSuccess: "Success",
		ToastError:   "Error",
		ToastWarning: "Warning",
		ToastInfo:    "Notice",
	}
	for typ, title := range want {
		view := &fakeToastView{}
		n := NewNotifier(view)
		n.Notify("m", typ, "", 0)
		if got := view.inserted[0].Title; got != title {
			t.Errorf("%s: title = %q, want %q", typ, got, title)
		}
	}
}

func TestAutoDismissFiresExactlyOnce(t *testing.T) {
	view := &fakeToastView{}
	sched := &manualScheduler{}
	n := NewNotifierWithScheduler(view, sched.schedule)

	n.Notify("going away", ToastInfo, "", 100*time.Millisecond)
	if len(sched.pending) != 1 {
		t.Fatalf("scheduled %d timers, want 1", len(sched.pending))
	}
	if sched.pending[0].d != 100*time.Millisecond {
		t.Errorf("timer duration = %v, want 100ms", sched.pending[0].d)
	}

	sched.fire()
	sched.fire() // a second fire must not remove anything twice

	if len(view.removed) != 1 {
		t.Fatalf("removed %d toasts, want 1", len(view.removed))
	}
	if n.ActiveCount() != 0 {
		t.Errorf("active count = %d, want 0", n.ActiveCount())
	}
}

func TestManualDismissCancelsTimer(t *testing.T) {
	view := &fakeToastView{}
	sched := &manualScheduler{}
	n := NewNotifierWithScheduler(view, sched.schedule)

	id := n.Notify("close me", ToastWarning, "", 0)
	n.Dismiss(id)

	if !sched.pending[0].canceled {
		t.Error("auto-dismiss timer was not canceled")
	}

	// Firing what is left must not produce a second removal.
	sched.fire()
	if len(view.removed) != 1 {
		t.Fatalf("removed %d toasts, want 1", len(view.removed))
	}
}

func TestContainerLifecycle(t *testing.T) {
	view := &fakeToastView{}
	sched := &manualScheduler{}
	n := NewNotifierWithScheduler(view, sched.schedule)

	a := n.Notify("first", ToastInfo, "", 0)
	b := n.Notify("second", ToastInfo, "", 0)

	if view.containers != 1 {
		t.Fatalf("container created %d times, want 1 (lazy, once)", view.containers)
	}

	n.Dismiss(a)
	if view.removals != 0 {
		t.Fatal("container removed while a toast is still visible")
	}
	n.Dismiss(b)
	if view.removals != 1 {
		t.Fatalf("container removed %d times after last toast, want 1", view.removals)
	}
}

func TestRapidRepeatedNotifies(t *testing.T) {
	view := &fakeToastView{}
	sched := &manualScheduler{}
	n := NewNotifierWithScheduler(view, sched.schedule)

	for i := 0; i < 20; i++ {
		n.Notify("again", ToastInfo, "", 0)
	}
	if len(view.inserted) != 20 {
		t.Fatalf("inserted %d toasts, want 20 (no coalescing)", len(view.inserted))
	}
	seen := make(map[int]bool)
	for _, toast := range view.inserted {
		if seen[toast.ID] {
			t.Fatalf("duplicate toast ID %d", toast.ID)
		}
		seen[toast.ID] = true
	}
}

func TestInsertOrderMatchesCallOrder(t *testing.T) {
	view := &fakeToastView{}
	n := NewNotifier(view)
	n.Notify("one", ToastInfo, "", 0)
	n.Notify("two", ToastInfo, "", 0)
	n.Notify("three", ToastInfo, "", 0)

	want := []string{"one", "two", "three"}
	for i, toast := range view.inserted {
		if toast.Message != want[i] {
			t.Errorf("position %d: message = %q, want %q", i, toast.Message, want[i])
		}
	}
}
