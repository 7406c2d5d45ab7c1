// Package form holds the editable state of a single record. It validates
// the required name, produces a trimmed payload and allows one save in flight
// at a time. It does not know whether the save creates or updates.
package form

import (
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/idilsaglam/records/internal/model"
)

var (
	ErrInvalid = errors.New("form: validation failed")
	ErrSaving  = errors.New("form: save already in progress")
)

// NameRequired is the field error shown for a blank name.
const NameRequired = "Name is required."

// Mode tells whether the form was opened with existing data.
type Mode int

const (
	ModeCreate Mode = iota
	ModeEdit
)

func (m Mode) String() string {
	if m == ModeEdit {
		return "edit"
	}
	return "create"
}

// Errors holds field-level validation messages.
type Errors struct {
	Name string
}

// Empty reports whether no field has an error.
func (e Errors) Empty() bool { return e.Name == "" }

// SaveFunc receives the sanitized payload. A nil command means the save was
// refused and nothing is in flight.
type SaveFunc func(model.Payload) tea.Cmd

// Form is the state of one create/edit form.
type Form struct {
	mode        Mode
	name        string
	description string
	errs        Errors
	saving      bool
}

// New opens a form: nil initial selects create mode, otherwise edit mode
// seeded from initial.
func New(initial *model.Record) *Form {
	f := &Form{}
	f.Reset(initial)
	return f
}

// Reset re-enters create or edit mode, discarding edits and errors.
func (f *Form) Reset(initial *model.Record) {
	*f = Form{}
	if initial != nil {
		f.mode = ModeEdit
		f.name = initial.Name
		f.description = initial.Description
	}
}

func (f *Form) Mode() Mode          { return f.mode }
func (f *Form) Name() string        { return f.name }
func (f *Form) Description() string { return f.description }
func (f *Form) Errors() Errors      { return f.errs }

// Saving reports whether a save is in flight; inputs are disabled meanwhile.
func (f *Form) Saving() bool { return f.saving }

// SetName updates the name field. Ignored while saving.
func (f *Form) SetName(v string) {
	if !f.saving {
		f.name = v
	}
}

// SetDescription updates the description field. Ignored while saving.
func (f *Form) SetDescription(v string) {
	if !f.saving {
		f.description = v
	}
}

// Validate checks the required fields and records field errors.
func (f *Form) Validate() bool {
	f.errs = Errors{}
	if strings.TrimSpace(f.name) == "" {
		f.errs.Name = NameRequired
	}
	return f.errs.Empty()
}

// Payload returns the trimmed field values. Description is always present,
// possibly empty.
func (f *Form) Payload() model.Payload {
	return model.Payload{
		Name:        strings.TrimSpace(f.name),
		Description: strings.TrimSpace(f.description),
	}
}

// Submit validates and hands the payload to save. It fails with ErrSaving
// while a previous save is still in flight and with ErrInvalid when
// validation fails; save is not called in either case.
func (f *Form) Submit(save SaveFunc) (tea.Cmd, error) {
	if f.saving {
		return nil, ErrSaving
	}
	if !f.Validate() {
		return nil, ErrInvalid
	}
	p := f.Payload()
	f.name, f.description = p.Name, p.Description
	f.saving = true
	cmd := save(p)
	if cmd == nil {
		f.saving = false
	}
	return cmd, nil
}

// Done marks the in-flight save as settled.
func (f *Form) Done() { f.saving = false }
