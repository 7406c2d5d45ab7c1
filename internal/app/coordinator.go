// Package app owns the record collection and the transient UI state around
// it. Operations return Bubble Tea commands; their results come back through
// Update, so every state change happens on the program's event loop and only
// after the matching network call has settled.
package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/idilsaglam/records/internal/model"
)

var errNoIdentity = errors.New("record has no id")

// RecordsAPI is the remote collection the coordinator synchronizes with.
type RecordsAPI interface {
	List(ctx context.Context) ([]model.Record, error)
	Create(ctx context.Context, p model.Payload) (model.Record, error)
	Update(ctx context.Context, id string, p model.Patch) (model.Record, error)
	Delete(ctx context.Context, id string) error
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithContext sets the parent context of every request.
func WithContext(ctx context.Context) Option {
	return func(c *Coordinator) {
		if ctx != nil {
			c.ctx = ctx
		}
	}
}

// WithLogger sets the logger for state transitions.
func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.log = l
		}
	}
}

// Coordinator is the single owner of the record collection. It is not safe
// for concurrent use; drive it from one goroutine.
type Coordinator struct {
	api RecordsAPI
	ctx context.Context
	log *slog.Logger

	records  []model.Record
	status   Status
	mutation Mutation
	modal    Modal
	pending  *model.Record
	err      string
	toast    Notification
	gen      uint64
}

// New returns a coordinator in StatusNotLoaded.
func New(api RecordsAPI, opts ...Option) *Coordinator {
	c := &Coordinator{
		api: api,
		ctx: context.Background(),
		log: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Init starts the initial load.
func (c *Coordinator) Init() tea.Cmd { return c.Load() }

// Records returns a copy of the collection.
func (c *Coordinator) Records() []model.Record {
	out := make([]model.Record, len(c.records))
	copy(out, c.records)
	return out
}

func (c *Coordinator) Status() Status         { return c.status }
func (c *Coordinator) Mutation() Mutation     { return c.mutation }
func (c *Coordinator) Modal() Modal           { return c.modal }
func (c *Coordinator) Err() string            { return c.err }
func (c *Coordinator) Toast() Notification    { return c.toast }
func (c *Coordinator) Loading() bool          { return c.status == StatusLoading }
func (c *Coordinator) Busy() bool             { return c.status == StatusMutating }
func (c *Coordinator) Confirming() bool       { return c.status == StatusConfirming }
func (c *Coordinator) Loaded() bool           { return c.status >= StatusIdle }
func (c *Coordinator) Pending() *model.Record { return c.pending }

// CanMutate reports whether the list controls (new, edit, delete, refresh)
// are enabled.
func (c *Coordinator) CanMutate() bool {
	return c.status == StatusIdle && !c.modal.Open()
}

// Prompt is the confirmation question for the pending delete.
func (c *Coordinator) Prompt() string {
	if c.pending == nil {
		return ""
	}
	return "Delete " + c.pending.DisplayName() + "?"
}

// Load fetches the whole collection. It is a no-op while another load, a
// confirmation or a mutation is in progress.
func (c *Coordinator) Load() tea.Cmd {
	if c.status != StatusNotLoaded && !c.CanMutate() {
		return nil
	}
	c.status = StatusLoading
	c.err = ""
	c.log.Debug("load started")

	api, ctx := c.api, c.ctx
	return func() tea.Msg {
		recs, err := api.List(ctx)
		return loadedMsg{records: recs, err: err}
	}
}

// Refresh reloads the collection.
func (c *Coordinator) Refresh() tea.Cmd { return c.Load() }

// OpenCreate shows an empty form.
func (c *Coordinator) OpenCreate() bool {
	if !c.CanMutate() {
		return false
	}
	c.modal = Modal{Mode: ModalCreate}
	return true
}

// OpenEdit shows the form seeded with r.
func (c *Coordinator) OpenEdit(r model.Record) bool {
	if !c.CanMutate() {
		return false
	}
	c.modal = Modal{Mode: ModalEdit, Target: &r}
	return true
}

// CloseModal dismisses the form. Refused while a save is in flight.
func (c *Coordinator) CloseModal() bool {
	if c.Busy() {
		return false
	}
	c.modal = Modal{}
	return true
}

// DismissError clears the error banner.
func (c *Coordinator) DismissError() { c.err = "" }

// Save creates or updates depending on the open form. It returns nil when
// the save is refused.
func (c *Coordinator) Save(p model.Payload) tea.Cmd {
	if c.status != StatusIdle || !c.modal.Open() {
		return nil
	}
	c.err = ""

	api, ctx := c.api, c.ctx
	if c.modal.Mode == ModalEdit {
		key := c.modal.Target.Key()
		if key == "" {
			c.err = errNoIdentity.Error()
			return nil
		}
		c.begin(MutationUpdate)
		c.log.Debug("update started", "record", key)
		patch := model.PatchFrom(p)
		return func() tea.Msg {
			rec, err := api.Update(ctx, key, patch)
			return savedMsg{mutation: MutationUpdate, key: key, record: rec, err: err}
		}
	}

	c.begin(MutationCreate)
	c.log.Debug("create started")
	return func() tea.Msg {
		rec, err := api.Create(ctx, p)
		return savedMsg{mutation: MutationCreate, record: rec, err: err}
	}
}

// RequestDelete asks for confirmation before deleting r.
func (c *Coordinator) RequestDelete(r model.Record) bool {
	if !c.CanMutate() {
		return false
	}
	c.status = StatusConfirming
	c.pending = &r
	return true
}

// ConfirmDelete answers the pending confirmation. Declining changes nothing
// else; accepting issues the delete.
func (c *Coordinator) ConfirmDelete(yes bool) tea.Cmd {
	if c.status != StatusConfirming {
		return nil
	}
	target := c.pending
	c.pending = nil
	c.status = StatusIdle
	if !yes {
		return nil
	}

	c.err = ""
	key := target.Key()
	if key == "" {
		c.err = errNoIdentity.Error()
		return nil
	}
	c.begin(MutationDelete)
	c.log.Debug("delete started", "record", key)

	api, ctx := c.api, c.ctx
	return func() tea.Msg {
		return deletedMsg{key: key, err: api.Delete(ctx, key)}
	}
}

// Update applies settled results. Unknown messages are ignored.
func (c *Coordinator) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case loadedMsg:
		return c.onLoaded(msg)
	case savedMsg:
		return c.onSaved(msg)
	case deletedMsg:
		return c.onDeleted(msg)
	case toastExpiredMsg:
		if msg.gen == c.toast.Gen {
			c.toast = Notification{}
		}
	}
	return nil
}

func (c *Coordinator) onLoaded(msg loadedMsg) tea.Cmd {
	if c.status != StatusLoading {
		return nil
	}
	c.status = StatusIdle
	if msg.err != nil {
		c.fail("load", msg.err)
		if c.records == nil {
			c.records = []model.Record{}
		}
		return nil
	}
	c.records = append([]model.Record{}, msg.records...)
	c.log.Debug("load done", "count", len(c.records))
	return nil
}

func (c *Coordinator) onSaved(msg savedMsg) tea.Cmd {
	if c.status != StatusMutating || c.mutation != msg.mutation {
		return nil
	}
	c.end()
	if msg.err != nil {
		c.fail(msg.mutation.String(), msg.err)
		return nil
	}

	var text string
	switch msg.mutation {
	case MutationUpdate:
		next := make([]model.Record, len(c.records))
		for i, r := range c.records {
			if r.Key() == msg.key {
				r = msg.record
			}
			next[i] = r
		}
		c.records = next
		text = ToastUpdated
	case MutationCreate:
		c.records = append([]model.Record{msg.record}, c.records...)
		text = ToastCreated
	}
	c.modal = Modal{}
	c.log.Debug(msg.mutation.String()+" done", "record", msg.record.Key())
	return c.notify(text)
}

func (c *Coordinator) onDeleted(msg deletedMsg) tea.Cmd {
	if c.status != StatusMutating || c.mutation != MutationDelete {
		return nil
	}
	c.end()
	if msg.err != nil {
		c.fail("delete", msg.err)
		return nil
	}
	next := make([]model.Record, 0, len(c.records))
	for _, r := range c.records {
		if r.Key() != msg.key {
			next = append(next, r)
		}
	}
	c.records = next
	c.log.Debug("delete done", "record", msg.key)
	return c.notify(ToastDeleted)
}

func (c *Coordinator) begin(m Mutation) {
	c.status = StatusMutating
	c.mutation = m
}

func (c *Coordinator) end() {
	c.status = StatusIdle
	c.mutation = MutationNone
}

func (c *Coordinator) fail(op string, err error) {
	c.err = err.Error()
	c.log.Warn(op+" failed", "error", err)
}

// notify shows text and schedules its removal. The removal only applies if
// no newer notification has replaced it.
func (c *Coordinator) notify(text string) tea.Cmd {
	c.gen++
	c.toast = Notification{Text: text, Gen: c.gen}
	gen := c.gen
	return tea.Tick(ToastDuration, func(time.Time) tea.Msg {
		return toastExpiredMsg{gen: gen}
	})
}
