package cli

import (
	"bytes"
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idilsaglam/records/internal/app"
	"github.com/idilsaglam/records/internal/model"
	"github.com/idilsaglam/records/internal/sandbox"
	"github.com/idilsaglam/records/internal/store/jsonstore"
	"github.com/idilsaglam/records/internal/tui"
	"github.com/idilsaglam/records/internal/ui"
)

type stubPrompt struct {
	answer bool
	secret string
	asked  []string
}

func (p *stubPrompt) Confirm(q string) (bool, error) {
	p.asked = append(p.asked, q)
	return p.answer, nil
}

func (p *stubPrompt) Secret(string) (string, error) { return p.secret, nil }

type harness struct {
	t      *testing.T
	dir    string
	store  *sandbox.Store
	apiURL string
	prompt *stubPrompt
	env    Env
	stdout *bytes.Buffer
	stderr *bytes.Buffer
}

func newHarness(t *testing.T, opts sandbox.Options) *harness {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("RECORDS_TOKEN", "")

	store := sandbox.NewStore()
	srv := httptest.NewServer(sandbox.NewRouter(store, opts))
	t.Cleanup(srv.Close)

	h := &harness{
		t:      t,
		dir:    dir,
		store:  store,
		apiURL: srv.URL + "/api",
		prompt: &stubPrompt{},
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
	}
	h.env = Env{
		Getenv: func(k string) string {
			if k == "XDG_CONFIG_HOME" {
				return dir
			}
			return ""
		},
		Prompt: h.prompt,
	}

	oldOut, oldErr := ui.Stdout, ui.Stderr
	ui.Stdout, ui.Stderr = h.stdout, h.stderr
	t.Cleanup(func() { ui.Stdout, ui.Stderr = oldOut, oldErr })
	return h
}

func (h *harness) run(args ...string) int {
	h.t.Helper()
	h.stdout.Reset()
	h.stderr.Reset()
	full := append([]string{"--api", h.apiURL, "--log-file", filepath.Join(h.dir, "records.log")}, args...)
	return Run(context.Background(), full, h.env)
}

func TestAddThenList(t *testing.T) {
	h := newHarness(t, sandbox.Options{})

	require.Equal(t, 0, h.run("add", "Groceries", "-d", "milk"))
	assert.Contains(t, h.stdout.String(), app.ToastCreated)

	recs := h.store.List()
	require.Len(t, recs, 1)
	assert.Equal(t, "Groceries", recs[0].Name)
	assert.Equal(t, "milk", recs[0].Description)

	require.Equal(t, 0, h.run("ls"))
	assert.Equal(t, 1, bytes.Count(h.stdout.Bytes(), []byte("Groceries")))

	require.Equal(t, 0, h.run("ls", "nothing"))
	assert.Contains(t, h.stdout.String(), `no records match "nothing"`)
}

func TestListEmpty(t *testing.T) {
	h := newHarness(t, sandbox.Options{})
	require.Equal(t, 0, h.run("ls"))
	assert.Contains(t, h.stdout.String(), "No records yet")
}

func TestAddBlankNameIsUsageError(t *testing.T) {
	h := newHarness(t, sandbox.Options{})
	assert.Equal(t, 2, h.run("add", "   "))
	assert.Contains(t, h.stderr.String(), "Name is required.")
	assert.Empty(t, h.store.List())

	assert.Equal(t, 2, h.run("add"))
}

func TestEdit(t *testing.T) {
	h := newHarness(t, sandbox.Options{})
	h.store.Seed([]model.Record{{ID: "a1", Name: "Alpha", Description: "first"}})

	require.Equal(t, 0, h.run("edit", "a1", "--name", "Alpha2"))
	assert.Contains(t, h.stdout.String(), app.ToastUpdated)

	recs := h.store.List()
	require.Len(t, recs, 1)
	assert.Equal(t, "Alpha2", recs[0].Name)
	assert.Equal(t, "first", recs[0].Description)

	assert.Equal(t, 1, h.run("edit", "nope", "-d", "x"))
	assert.Contains(t, h.stderr.String(), "no record with id nope")

	assert.Equal(t, 2, h.run("edit", "a1"))
}

func TestRemoveAsksFirst(t *testing.T) {
	h := newHarness(t, sandbox.Options{})
	h.store.Seed([]model.Record{{ID: "a1", Name: "Alpha"}})

	h.prompt.answer = false
	require.Equal(t, 0, h.run("rm", "a1"))
	assert.Equal(t, []string{"Delete Alpha?"}, h.prompt.asked)
	assert.Len(t, h.store.List(), 1)

	h.prompt.answer = true
	require.Equal(t, 0, h.run("rm", "a1"))
	assert.Empty(t, h.store.List())
	assert.Contains(t, h.stdout.String(), app.ToastDeleted)
}

func TestRemoveWithoutPrompt(t *testing.T) {
	h := newHarness(t, sandbox.Options{})
	h.store.Seed([]model.Record{{ID: "a1", Name: "Alpha"}})

	require.Equal(t, 0, h.run("rm", "-y", "a1"))
	assert.Empty(t, h.prompt.asked)
	assert.Empty(t, h.store.List())
}

func TestServerFailure(t *testing.T) {
	h := newHarness(t, sandbox.Options{FailStatus: http.StatusInternalServerError})
	assert.Equal(t, 1, h.run("ls"))
	assert.Contains(t, h.stderr.String(), "Request failed (500 Internal Server Error): injected failure")
}

func TestDefaultsToUI(t *testing.T) {
	h := newHarness(t, sandbox.Options{})
	var got tui.Options
	h.env.RunUI = func(c *app.Coordinator, opt tui.Options) error {
		got = opt
		return nil
	}
	require.Equal(t, 0, h.run())
	assert.Equal(t, "API: "+h.apiURL, got.APILabel)
	assert.Equal(t, "classic", got.Theme)
}

func TestUsageErrors(t *testing.T) {
	h := newHarness(t, sandbox.Options{})
	assert.Equal(t, 2, h.run("frobnicate"))
	assert.Contains(t, h.stderr.String(), "unknown subcommand: frobnicate")

	assert.Equal(t, 2, Run(context.Background(), []string{"--bogus"}, h.env))
	assert.Equal(t, 2, Run(context.Background(), []string{"--timeout", "soon", "ls"}, h.env))
}

func TestConfigCommand(t *testing.T) {
	h := newHarness(t, sandbox.Options{})
	require.Equal(t, 0, h.run("config"))
	assert.Contains(t, h.stdout.String(), `"api_url": "`+h.apiURL+`"`)
}

func TestAuthCommands(t *testing.T) {
	h := newHarness(t, sandbox.Options{})

	require.Equal(t, 0, h.run("auth", "status"))
	assert.Contains(t, h.stdout.String(), "not logged in")

	h.prompt.secret = "sekret-1234"
	require.Equal(t, 0, h.run("auth", "login"))
	_, err := os.Stat(filepath.Join(h.dir, ".records", "credentials.json"))
	require.NoError(t, err)

	require.Equal(t, 0, h.run("auth", "status"))
	assert.Contains(t, h.stdout.String(), "****1234")
	assert.NotContains(t, h.stdout.String(), "sekret")

	require.Equal(t, 0, h.run("auth", "logout"))
	require.Equal(t, 0, h.run("auth", "status"))
	assert.Contains(t, h.stdout.String(), "not logged in")

	assert.Equal(t, 2, h.run("auth"))
}

func TestTokenIsSent(t *testing.T) {
	h := newHarness(t, sandbox.Options{Token: "t0k"})
	assert.Equal(t, 1, h.run("ls"))
	assert.Contains(t, h.stderr.String(), "401")

	t.Setenv("RECORDS_TOKEN", "Bearer t0k")
	assert.Equal(t, 0, h.run("ls"))
}

func TestSandboxCommand(t *testing.T) {
	h := newHarness(t, sandbox.Options{})
	seed := filepath.Join(h.dir, "seed.json")
	require.NoError(t, os.WriteFile(seed, []byte(`[
		// seeded
		{"name": "Alpha"},
	]`), 0o644))

	var body string
	h.env.Serve = func(_ context.Context, srv *http.Server) error {
		rec := httptest.NewRecorder()
		srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/records", nil))
		body = rec.Body.String()
		return nil
	}
	require.Equal(t, 0, h.run("sandbox", "--seed", seed, "--addr", "127.0.0.1:0"))
	assert.Contains(t, body, `"name":"Alpha"`)

	assert.Equal(t, 2, h.run("sandbox", "--fail-status", "200"))
}

func TestSandboxPersistsData(t *testing.T) {
	h := newHarness(t, sandbox.Options{})
	data := filepath.Join(h.dir, "data", "records.json")

	h.env.Serve = func(_ context.Context, srv *http.Server) error {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/records", strings.NewReader(`{"name":"Kept","description":""}`))
		srv.Handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code)
		return nil
	}
	require.Equal(t, 0, h.run("sandbox", "--data", data))

	recs, err := jsonstore.Load(data)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "Kept", recs[0].Name)
}

func TestWhoami(t *testing.T) {
	h := newHarness(t, sandbox.Options{})
	assert.Equal(t, 2, h.run("auth", "whoami"))
	assert.Contains(t, h.stderr.String(), "no token found")

	creds := filepath.Join(h.dir, ".records", "credentials.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(creds), 0o700))
	require.NoError(t, os.WriteFile(creds, []byte("{not json"), 0o600))
	assert.Equal(t, 1, h.run("auth", "whoami"))
	assert.Contains(t, h.stderr.String(), "parse credentials")
	require.NoError(t, os.Remove(creds))

	payload := base64.RawURLEncoding.EncodeToString([]byte(`{"sub":"user-7"}`))
	t.Setenv("RECORDS_TOKEN", "hdr."+payload+".sig")
	require.Equal(t, 0, h.run("auth", "whoami"))
	assert.Contains(t, h.stdout.String(), `"sub": "user-7"`)

	require.Equal(t, 0, h.run("auth", "logout"))
	assert.Contains(t, h.stdout.String(), "nothing to delete")

	t.Setenv("RECORDS_TOKEN", "opaque")
	require.Equal(t, 0, h.run("auth", "whoami"))
	assert.Contains(t, h.stdout.String(), "Opaque token")
}
