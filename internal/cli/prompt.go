package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/peterh/liner"
)

// Prompter asks the user questions on the terminal.
type Prompter interface {
	// Confirm asks a yes/no question. Aborting counts as no.
	Confirm(question string) (bool, error)
	// Secret reads a value without echoing it.
	Secret(prompt string) (string, error)
}

type linerPrompter struct{}

func (linerPrompter) Confirm(question string) (bool, error) {
	l := liner.NewLiner()
	defer l.Close()
	l.SetCtrlCAborts(true)

	for {
		answer, err := l.Prompt(question + " (yes/no) ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				return false, nil
			}
			return false, fmt.Errorf("reading input: %w", err)
		}
		if yes, ok := parseYesNo(answer); ok {
			return yes, nil
		}
	}
}

func (linerPrompter) Secret(prompt string) (string, error) {
	l := liner.NewLiner()
	defer l.Close()
	l.SetCtrlCAborts(true)

	v, err := l.PasswordPrompt(prompt)
	if err != nil {
		if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
			return "", errors.New("aborted")
		}
		return "", fmt.Errorf("reading input: %w", err)
	}
	return v, nil
}

func parseYesNo(s string) (yes, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "y", "yes":
		return true, true
	case "n", "no":
		return false, true
	}
	return false, false
}
