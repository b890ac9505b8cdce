package webui

import (
	"strings"

	"github.com/harveywai/threatscan/pkg/urlcheck"
)

// FormView is the slice of the page the scan form controller manipulates.
type FormView interface {
	Value() string
	SetValue(v string)
	// SetHint updates the hint text and applies the status class (one of
	// ok/warn/error/none) to both the hint element and the input field.
	SetHint(text, status string)
	FocusInput()
	// SetSubmitting disables the submit control and marks it loading.
	SetSubmitting()
	// ShowOverlay inserts the full-screen blocking overlay with spinner.
	ShowOverlay()
}

// ScanForm gates the native form submission behind the heuristic evaluator
// and drives the busy state once a submission is allowed through. The overlay
// is never removed here; browser navigation replaces the page.
type ScanForm struct {
	view       FormView
	notifier   *Notifier
	submitting bool
}

func NewScanForm(view FormView, notifier *Notifier) *ScanForm {
	return &ScanForm{view: view, notifier: notifier}
}

// InputChanged re-evaluates on every keystroke and restyles the hint and
// input. Empty input clears styling without putting an error class on the
// input field.
func (f *ScanForm) InputChanged() {
	res := urlcheck.Evaluate(f.view.Value())
	status := string(res.Status)
	if res.Status == urlcheck.StatusEmpty {
		status = "none"
	}
	f.view.SetHint(res.Message, status)
}

// Submit decides whether the native submission proceeds. Error and empty
// input block it with an error toast and return focus to the field; warn and
// ok let it through with a matching toast and enter the loading state.
func (f *ScanForm) Submit() bool {
	value := strings.TrimSpace(f.view.Value())
	f.view.SetValue(value)

	res := urlcheck.Evaluate(value)
	switch res.Status {
	case urlcheck.StatusEmpty:
		f.notifier.Notify("Please enter a URL before scanning.", ToastError, "", 0)
		f.view.FocusInput()
		return false
	case urlcheck.StatusError:
		f.notifier.Notify("That does not look like a complete URL.", ToastError, "", 0)
		f.view.FocusInput()
		return false
	case urlcheck.StatusWarn:
		f.notifier.Notify("Suspicious URL submitted. Deep analysis will proceed.", ToastWarning, "", 0)
	default:
		f.notifier.Notify("URL submitted for deep analysis.", ToastSuccess, "", 0)
	}

	f.beginSubmit()
	return true
}

// beginSubmit is idempotent: the overlay is inserted at most once even if
// submit fires more than once before navigation.
func (f *ScanForm) beginSubmit() {
	if f.submitting {
		return
	}
	f.submitting = true
	f.view.SetSubmitting()
	f.view.ShowOverlay()
}
