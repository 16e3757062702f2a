package ckit

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandNoArgs(t *testing.T) {
	err := runCommand(t)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no command specified")
}

func TestRootCommandGroups(t *testing.T) {
	rootCmd := NewRootCmd()

	groups := make(map[string]string)
	for _, c := range rootCmd.Commands() {
		groups[c.Name()] = c.GroupID
	}

	assert.Equal(t, "core", groups["install"])
	assert.Equal(t, "core", groups["update"])
	assert.Equal(t, "core", groups["uninstall"])
	assert.Equal(t, "core", groups["status"])
	assert.Equal(t, "core", groups["list"])
	assert.Equal(t, "misc", groups["config"])
	assert.Equal(t, "misc", groups["topics"])
}

func TestRootCommandPersistentFlags(t *testing.T) {
	rootCmd := NewRootCmd()

	for _, name := range []string{"verbose", "dry-run", "force", "global", "root", "format"} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(name), "missing persistent flag %q", name)
	}
}

func TestTopicsCommandListsEmbeddedDocs(t *testing.T) {
	output := captureOutput(t, func() {
		err := runCommand(t, "topics")
		require.NoError(t, err)
	})

	assert.Contains(t, output, "General topics:")
	assert.Contains(t, output, "ownership")
	assert.Contains(t, output, "manifest")
	assert.Contains(t, output, "sync")
	assert.Contains(t, output, "ckit help <topic>")
}

func TestHelpTopicRendersOwnership(t *testing.T) {
	output := captureOutput(t, func() {
		err := runCommand(t, "help", "ownership")
		require.NoError(t, err)
	})

	assert.Contains(t, output, "Kit-owned")
	assert.Contains(t, output, "User-owned")
}

func TestHelpFallsBackToCommandHelp(t *testing.T) {
	output := captureOutput(t, func() {
		err := runCommand(t, "help", "install")
		require.NoError(t, err)
	})

	assert.Contains(t, output, "install")
	assert.Contains(t, output, "--from")
}

func TestCompletionCommand(t *testing.T) {
	output := captureOutput(t, func() {
		err := runCommand(t, "completion", "bash")
		require.NoError(t, err)
	})
	assert.Contains(t, output, "ckit")

	err := runCommand(t, "completion", "tcsh")
	require.Error(t, err)
}

func TestHiddenDefaultHelpCommandReplaced(t *testing.T) {
	rootCmd := NewRootCmd()

	var helpCmd *cobra.Command
	for _, c := range rootCmd.Commands() {
		if c.Name() == "help" {
			helpCmd = c
		}
	}
	require.NotNil(t, helpCmd)
	assert.False(t, helpCmd.Hidden, "topic-aware help command should be visible")
}
