package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	flag "github.com/spf13/pflag"

	"github.com/idilsaglam/records/internal/app"
	"github.com/idilsaglam/records/internal/form"
	"github.com/idilsaglam/records/internal/model"
	"github.com/idilsaglam/records/internal/present"
	"github.com/idilsaglam/records/internal/ui"
)

// drive settles cmd on the calling goroutine. Follow-up commands (toast
// timers) are dropped.
func drive(c *app.Coordinator, cmd tea.Cmd) {
	if cmd != nil {
		c.Update(cmd())
	}
}

// loaded returns a coordinator holding the current collection.
func (s *session) loaded(ctx context.Context) (*app.Coordinator, int) {
	c, err := s.coordinator(ctx)
	if err != nil {
		ui.Fail(err.Error())
		return nil, 1
	}
	drive(c, c.Load())
	if e := c.Err(); e != "" {
		ui.Fail(e)
		return nil, 1
	}
	return c, 0
}

func subFlags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func find(c *app.Coordinator, id string) (model.Record, bool) {
	for _, r := range c.Records() {
		if r.Key() == id {
			return r, true
		}
	}
	return model.Record{}, false
}

func (s *session) list(ctx context.Context, args []string) int {
	c, code := s.loaded(ctx)
	if c == nil {
		return code
	}
	query := strings.Join(args, " ")
	res := present.View(c.Records(), query)
	t := ui.Current()

	header := fmt.Sprintf("%s  %s %d", ui.C(t.Title, "Records"), ui.C(t.Accent, "Total"), len(c.Records()))
	if strings.TrimSpace(query) != "" {
		header += fmt.Sprintf("  %s %d", ui.C(t.Pending, "Matching"), len(res.Rows))
	}
	lines := []string{header, ""}

	switch {
	case res.Empty:
		lines = append(lines, ui.C(t.Muted, "No records yet"), "",
			ui.C(t.Muted, "Tip: add with `records add \"Groceries\"`"))
	case res.NoMatches:
		lines = append(lines, ui.C(t.Muted, fmt.Sprintf("no records match %q", strings.TrimSpace(query))))
	default:
		for i, r := range res.Rows {
			lines = append(lines, recordLines(i, r)...)
		}
	}
	ui.Panel(lines)
	return 0
}

func recordLines(i int, r model.Record) []string {
	t := ui.Current()
	title := fmt.Sprintf("%s %s %s", ui.Faint(fmt.Sprintf("%2d.", i+1)),
		ui.Truncate(r.DisplayName(), 60), ui.C(t.Muted, "["+r.Key()+"]"))

	desc := strings.TrimSpace(r.Description)
	if desc == "" {
		desc = t.Empty
	}
	detail := "    " + ui.C(t.Muted, t.Bullet) + " " + ui.Truncate(desc, 70)
	if ts, ok := r.Created(); ok {
		detail += ui.C(t.Muted, "  Created "+ts.Local().Format("2006-01-02 15:04"))
	}
	return []string{title, detail}
}

// saveThrough submits f through the coordinator and reports the outcome.
func saveThrough(c *app.Coordinator, f *form.Form) int {
	cmd, err := f.Submit(c.Save)
	if err != nil {
		if errors.Is(err, form.ErrInvalid) {
			ui.Fail(f.Errors().Name)
			return 2
		}
		ui.Fail(err.Error())
		return 1
	}
	drive(c, cmd)
	f.Done()
	if e := c.Err(); e != "" {
		ui.Fail(e)
		return 1
	}
	return 0
}

func (s *session) add(ctx context.Context, args []string) int {
	fs := subFlags("add")
	desc := fs.StringP("description", "d", "", "description")
	if err := fs.Parse(args); err != nil {
		ui.Fail("add: " + err.Error())
		return 2
	}
	if fs.NArg() == 0 {
		ui.Fail("usage: records add <name...> [-d description]")
		return 2
	}

	c, code := s.loaded(ctx)
	if c == nil {
		return code
	}
	c.OpenCreate()
	f := form.New(nil)
	f.SetName(strings.Join(fs.Args(), " "))
	f.SetDescription(*desc)
	if code := saveThrough(c, f); code != 0 {
		return code
	}
	ui.OK(fmt.Sprintf("%s (%s)", c.Toast().Text, c.Records()[0].Key()))
	return 0
}

func (s *session) edit(ctx context.Context, args []string) int {
	fs := subFlags("edit")
	name := fs.String("name", "", "new name")
	desc := fs.StringP("description", "d", "", "new description")
	if err := fs.Parse(args); err != nil {
		ui.Fail("edit: " + err.Error())
		return 2
	}
	if fs.NArg() != 1 {
		ui.Fail("usage: records edit <id> [--name N] [-d description]")
		return 2
	}
	if !fs.Changed("name") && !fs.Changed("description") {
		ui.Fail("edit: nothing to change, pass --name or -d")
		return 2
	}

	c, code := s.loaded(ctx)
	if c == nil {
		return code
	}
	id := fs.Arg(0)
	r, ok := find(c, id)
	if !ok {
		ui.Fail("no record with id " + id)
		ui.Hint("run `records ls` to see ids")
		return 1
	}
	c.OpenEdit(r)
	f := form.New(&r)
	if fs.Changed("name") {
		f.SetName(*name)
	}
	if fs.Changed("description") {
		f.SetDescription(*desc)
	}
	if code := saveThrough(c, f); code != 0 {
		return code
	}
	ui.OK(c.Toast().Text)
	return 0
}

func (s *session) remove(ctx context.Context, args []string) int {
	fs := subFlags("rm")
	yes := fs.BoolP("yes", "y", false, "do not ask for confirmation")
	if err := fs.Parse(args); err != nil {
		ui.Fail("rm: " + err.Error())
		return 2
	}
	if fs.NArg() != 1 {
		ui.Fail("usage: records rm <id> [-y]")
		return 2
	}

	c, code := s.loaded(ctx)
	if c == nil {
		return code
	}
	id := fs.Arg(0)
	r, ok := find(c, id)
	if !ok {
		ui.Fail("no record with id " + id)
		ui.Hint("run `records ls` to see ids")
		return 1
	}

	c.RequestDelete(r)
	confirmed := *yes
	if !confirmed {
		var err error
		confirmed, err = s.env.Prompt.Confirm(c.Prompt())
		if err != nil {
			c.ConfirmDelete(false)
			ui.Fail(err.Error())
			return 1
		}
	}
	drive(c, c.ConfirmDelete(confirmed))
	if !confirmed {
		fmt.Fprintln(ui.Stdout, ui.C(ui.Current().Muted, "kept "+r.DisplayName()))
		return 0
	}
	if e := c.Err(); e != "" {
		ui.Fail(e)
		return 1
	}
	ui.OK(c.Toast().Text)
	return 0
}
