package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/mattn/go-isatty"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_Subcommands(t *testing.T) {
	root := newRootCmd()

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"serve", "tui"}, names)
	assert.NotNil(t, root.PersistentFlags().Lookup("config"))
}

func TestRootCmd_BadConfigFails(t *testing.T) {
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"serve", "--config", filepath.Join(t.TempDir(), "missing.yaml")})

	err := root.Execute()
	assert.ErrorContains(t, err, "missing.yaml")
}

func TestRootCmd_InvalidConfigValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bookshelf.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: loud\n"), 0o600))

	root := newRootCmd()
	root.SetArgs([]string{"tui", "--config", path})

	assert.ErrorContains(t, root.Execute(), "log.level")
}

func TestTUICmd_RequiresTerminal(t *testing.T) {
	if isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd()) {
		t.Skip("stdin is a terminal")
	}
	t.Chdir(t.TempDir())

	root := newRootCmd()
	root.SetArgs([]string{"tui"})

	assert.ErrorIs(t, root.Execute(), errNoTerminal)
}

func TestApp_Seed(t *testing.T) {
	a := &app{}
	a.cfg.Seed = true
	assert.Len(t, a.seed(), 4)

	a.cfg.Seed = false
	assert.Empty(t, a.seed())
}
