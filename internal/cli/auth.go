package cli

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/idilsaglam/records/internal/auth"
	"github.com/idilsaglam/records/internal/ui"
)

func (s *session) auth(args []string) int {
	if len(args) == 0 {
		ui.Fail("usage: records auth login|logout|status|whoami")
		return 2
	}
	switch args[0] {
	case "login":
		return s.login(args[1:])
	case "logout":
		if ti, _ := auth.GetToken(); ti != nil && ti.Source == "env" {
			ui.OK("token is provided by the RECORDS_TOKEN env var (nothing to delete)")
			return 0
		}
		if err := auth.DeleteToken(); err != nil {
			ui.Fail("logout: " + err.Error())
			return 1
		}
		ui.OK("logged out")
		return 0
	case "status":
		return authStatus()
	case "whoami":
		return whoami()
	}
	ui.Fail("unknown auth subcommand: " + args[0])
	return 2
}

func (s *session) login(args []string) int {
	fs := subFlags("login")
	token := fs.String("token", "", "token to store (prompted when omitted)")
	if err := fs.Parse(args); err != nil {
		ui.Fail("login: " + err.Error())
		return 2
	}
	if *token == "" {
		v, err := s.env.Prompt.Secret("Token: ")
		if err != nil {
			ui.Fail("login: " + err.Error())
			return 1
		}
		*token = v
	}
	if err := auth.SetToken(*token, nil); err != nil {
		ui.Fail("login: " + err.Error())
		return 1
	}
	p, _ := auth.CredFilePath()
	ui.OK("token saved to " + p)
	s.log.Info("token stored", "path", p)
	return 0
}

func authStatus() int {
	ti, err := auth.GetToken()
	if err != nil {
		ui.Fail(err.Error())
		return 1
	}
	t := ui.Current()
	if ti == nil {
		fmt.Fprintln(ui.Stdout, ui.C(t.Muted, "not logged in; requests are sent without a token"))
		return 0
	}
	lines := []string{
		ui.C(t.Title, "Auth"),
		"",
		fmt.Sprintf("%s %s", ui.C(t.Accent, "source"), ti.Source),
		fmt.Sprintf("%s  %s", ui.C(t.Accent, "token"), mask(ti.Token)),
	}
	if !ti.CreatedAt.IsZero() {
		lines = append(lines, fmt.Sprintf("%s  %s", ui.C(t.Accent, "saved"), ti.CreatedAt.Local().Format("2006-01-02 15:04")))
	}
	ui.Panel(lines)
	return 0
}

func mask(token string) string {
	if len(token) <= 4 {
		return "****"
	}
	return "****" + token[len(token)-4:]
}

// whoami decodes a JWT payload locally (unverified); opaque tokens print
// basic info.
func whoami() int {
	ti, err := auth.Require()
	if errors.Is(err, auth.ErrNoToken) {
		ui.Fail(err.Error())
		return 2
	}
	if err != nil {
		ui.Fail("whoami: " + err.Error())
		return 1
	}
	if claims, ok := jwtClaims(ti.Token); ok {
		fmt.Fprintln(ui.Stdout, "JWT payload:")
		fmt.Fprintln(ui.Stdout, claims)
		return 0
	}
	fmt.Fprintln(ui.Stdout, "Opaque token (cannot introspect locally).")
	fmt.Fprintln(ui.Stdout, "source:", ti.Source)
	return 0
}

func jwtClaims(token string) (string, bool) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return "", false
	}
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(parts[1], "="))
	if err != nil {
		return "", false
	}
	var claims map[string]any
	if err := json.Unmarshal(raw, &claims); err != nil {
		return "", false
	}
	out, err := json.MarshalIndent(claims, "", "  ")
	if err != nil {
		return "", false
	}
	return string(out), true
}
