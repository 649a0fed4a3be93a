package portal

import "github.com/goliatone/go-router"

// FormState is what a screen renders: the submitted values, inline field
// errors and the banner state of the last submit.
type FormState struct {
	Values     map[string]any
	Errors     map[string]string
	Submitting bool
	Submitted  bool
	Success    string
	Error      string
	Generation uint64
}

func NewFormState(values map[string]any) *FormState {
	if values == nil {
		values = map[string]any{}
	}
	return &FormState{
		Values: values,
		Errors: map[string]string{},
	}
}

// Begin enters the request phase of a submit.
func (f *FormState) Begin(ticket Ticket) {
	f.Submitting = true
	f.Submitted = false
	f.Success = ""
	f.Error = ""
	f.Errors = map[string]string{}
	f.Generation = ticket.Generation
}

// Invalid records field errors; nothing was sent to the auth service.
func (f *FormState) Invalid(errs map[string]string) {
	f.Submitting = false
	f.Errors = errs
}

func (f *FormState) Fail(message string) {
	f.Submitting = false
	f.Success = ""
	f.Error = message
}

func (f *FormState) Succeed(message string) {
	f.Submitting = false
	f.Submitted = true
	f.Error = ""
	f.Success = message
}

// Reset returns to an empty form, used when a stale submit is discarded.
func (f *FormState) Reset() {
	*f = *NewFormState(nil)
}

func (f *FormState) HasErrors() bool {
	return len(f.Errors) > 0
}

// ViewContext exposes the state under the keys the templates read.
func (f *FormState) ViewContext() router.ViewContext {
	return router.ViewContext{
		"record":     f.Values,
		"validation": f.Errors,
		"submitted":  f.Submitted,
		"success":    f.Success,
		"error":      f.Error,
		"generation": f.Generation,
	}
}
