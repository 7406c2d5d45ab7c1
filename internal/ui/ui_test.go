package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPanelMonoTheme(t *testing.T) {
	SetTheme("mono")
	t.Cleanup(func() { SetTheme("classic") })

	var buf bytes.Buffer
	PanelTo(&buf, []string{"Records", "", "1. Alpha"})

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "+----------+", lines[0])
	assert.Equal(t, "| Records  |", lines[1])
	assert.Equal(t, "| 1. Alpha |", lines[3])
	assert.Equal(t, lines[0], lines[4])
}

func TestColorOnlyOnTerminal(t *testing.T) {
	SetTheme("classic")
	SetColorForcing(false, false)
	var buf bytes.Buffer
	old := Stdout
	Stdout = &buf
	t.Cleanup(func() { Stdout = old })

	assert.Equal(t, "plain", C(fgRed, "plain"))

	SetColorForcing(true, false)
	t.Cleanup(func() { SetColorForcing(false, false) })
	assert.Equal(t, fgRed+"plain"+reset, C(fgRed, "plain"))

	OK("saved")
	assert.Contains(t, buf.String(), "✔ saved")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "abcdefg...", Truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "ééé...", Truncate("éééééééé", 6))
}
