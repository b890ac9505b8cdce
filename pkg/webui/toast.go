// Package webui models the interactive behavior of the ThreatScan pages as
// plain controller objects. The browser runs the equivalent inline script
// served with the dashboard; keeping the same logic here lets every rule be
// exercised without a DOM.
package webui

import (
	"strings"
	"sync"
	"time"
)

// ToastType selects the visual style of a notification.
type ToastType string

const (
	ToastSuccess ToastType = "success"
	ToastError   ToastType = "error"
	ToastWarning ToastType = "warning"
	ToastInfo    ToastType = "info"
)

// DefaultToastDuration is how long a toast stays on screen when the caller
// does not ask for anything else.
const DefaultToastDuration = 4500 * time.Millisecond

// defaultTitles maps each toast type to the title used when none is given.
var defaultTitles = map[ToastType]string{
	ToastSuccess: "Success",
	ToastError:   "Error",
	ToastWarning: "Warning",
	ToastInfo:    "Notice",
}

// NormalizeToastType maps unknown type values to "info" rather than rejecting them.
func NormalizeToastType(t string) ToastType {
	switch ToastType(strings.ToLower(t)) {
	case ToastSuccess, ToastError, ToastWarning, ToastInfo:
		return ToastType(strings.ToLower(t))
	}
	return ToastInfo
}

// Toast is one transient notification.
type Toast struct {
	ID       int
	Message  string
	Title    string
	Type     ToastType
	Duration time.Duration
}

// ToastView is the rendering surface the notifier draws on.
type ToastView interface {
	// CreateContainer is called before the first toast is inserted.
	CreateContainer()
	// RemoveContainer is called after the last toast is removed.
	RemoveContainer()
	// InsertToast appends the toast to the container, in call order.
	InsertToast(t Toast)
	// RemoveToast takes a previously inserted toast off screen.
	RemoveToast(id int)
}

// Scheduler runs fn after d and returns a cancel function. The production
// scheduler is time.AfterFunc; tests substitute a manual one.
type Scheduler func(d time.Duration, fn func()) (cancel func())

func timerScheduler(d time.Duration, fn func()) func() {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}

// Notifier owns the toast stack: lazy container creation, independent
// auto-dismiss timers per toast, and a single-shot removal guard so a manual
// dismiss and a fired timer never double-remove.
type Notifier struct {
	mu       sync.Mutex
	view     ToastView
	schedule Scheduler
	nextID   int
	active   map[int]*toastState
}

type toastState struct {
	cancel  func()
	removed bool
}

// NewNotifier returns a notifier rendering into view with real timers.
func NewNotifier(view ToastView) *Notifier {
	return NewNotifierWithScheduler(view, timerScheduler)
}

// NewNotifierWithScheduler is NewNotifier with an explicit scheduler.
func NewNotifierWithScheduler(view ToastView, schedule Scheduler) *Notifier {
	return &Notifier{
		view:     view,
		schedule: schedule,
		active:   make(map[int]*toastState),
	}
}

// Notify shows a toast and returns its ID, or 0 when message is empty and the
// call is a no-op. Zero values select the defaults: type info, a per-type
// title, and DefaultToastDuration.
func (n *Notifier) Notify(message string, typ ToastType, title string, duration time.Duration) int {
	if message == "" {
		return 0
	}

	typ = NormalizeToastType(string(typ))
	if title == "" {
		title = defaultTitles[typ]
	}
	if duration <= 0 {
		duration = DefaultToastDuration
	}

	n.mu.Lock()
	n.nextID++
	id := n.nextID
	t := Toast{
		ID:       id,
		Message:  message,
		Title:    title,
		Type:     typ,
		Duration: duration,
	}

	if len(n.active) == 0 {
		n.view.CreateContainer()
	}
	st := &toastState{}
	n.active[id] = st
	n.view.InsertToast(t)

	st.cancel = n.schedule(duration, func() { n.Dismiss(id) })
	n.mu.Unlock()

	return id
}

// Dismiss removes a toast early, canceling its pending auto-removal. It is
// also the auto-removal path itself; the removed flag makes the second caller
// a no-op.
func (n *Notifier) Dismiss(id int) {
	n.mu.Lock()
	defer n.mu.Unlock()

	st, ok := n.active[id]
	if !ok || st.removed {
		return
	}
	st.removed = true
	if st.cancel != nil {
		st.cancel()
	}
	delete(n.active, id)

	n.view.RemoveToast(id)
	if len(n.active) == 0 {
		n.view.RemoveContainer()
	}
}

// ActiveCount reports how many toasts are currently on screen.
func (n *Notifier) ActiveCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.active)
}
