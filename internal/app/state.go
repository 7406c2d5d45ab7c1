package app

import (
	"time"

	"github.com/idilsaglam/records/internal/model"
)

// ToastDuration is how long a success notification stays visible.
const ToastDuration = 2500 * time.Millisecond

// Toast texts.
const (
	ToastCreated = "Record created"
	ToastUpdated = "Record updated"
	ToastDeleted = "Record deleted"
)

// Status is the coordinator's activity. Exactly one holds at a time.
type Status int

const (
	StatusNotLoaded Status = iota
	StatusLoading
	StatusIdle
	// StatusConfirming waits for a yes/no answer on a pending delete.
	StatusConfirming
	// StatusMutating has a create, update or delete in flight.
	StatusMutating
)

func (s Status) String() string {
	switch s {
	case StatusNotLoaded:
		return "not-loaded"
	case StatusLoading:
		return "loading"
	case StatusIdle:
		return "idle"
	case StatusConfirming:
		return "confirming"
	case StatusMutating:
		return "mutating"
	default:
		return "unknown"
	}
}

// Mutation names the write in flight while StatusMutating.
type Mutation int

const (
	MutationNone Mutation = iota
	MutationCreate
	MutationUpdate
	MutationDelete
)

func (m Mutation) String() string {
	switch m {
	case MutationCreate:
		return "create"
	case MutationUpdate:
		return "update"
	case MutationDelete:
		return "delete"
	default:
		return "none"
	}
}

// ModalMode is which form, if any, is shown.
type ModalMode int

const (
	ModalClosed ModalMode = iota
	ModalCreate
	ModalEdit
)

// Modal describes the open form. Target is only set in ModalEdit.
type Modal struct {
	Mode   ModalMode
	Target *model.Record
}

// Open reports whether a form is shown.
func (m Modal) Open() bool { return m.Mode != ModalClosed }

// Title is the heading of the open form.
func (m Modal) Title() string {
	if m.Mode == ModalEdit {
		return "Edit Record"
	}
	return "New Record"
}

// Notification is a toast stamped with the generation that produced it.
type Notification struct {
	Text string
	Gen  uint64
}

// Messages delivered back to Update once a command settles.
type (
	loadedMsg struct {
		records []model.Record
		err     error
	}
	savedMsg struct {
		mutation Mutation
		key      string
		record   model.Record
		err      error
	}
	deletedMsg struct {
		key string
		err error
	}
	toastExpiredMsg struct {
		gen uint64
	}
)
