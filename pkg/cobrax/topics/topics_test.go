package topics

import (
	"io"
	"os"
	"testing"
	"testing/fstest"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureOutput redirects stdout around f and returns what it printed.
func captureOutput(t *testing.T, f func()) string {
	t.Helper()

	r, w, err := os.Pipe()
	require.NoError(t, err)

	stdout := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = stdout }()

	f()

	require.NoError(t, w.Close())
	out, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(out)
}

func docFS() fstest.MapFS {
	return fstest.MapFS{
		"dry-run.txt":     {Data: []byte("Information about dry-run mode")},
		"architecture.md": {Data: []byte("# Architecture\n\nSystem architecture details")},
		"config.txxt":     {Data: []byte("Configuration Guide\n==================")},
		"ignore.json":     {Data: []byte("This should be ignored")},
	}
}

func TestManagerLoadsSupportedExtensions(t *testing.T) {
	t.Run("default extensions", func(t *testing.T) {
		m, err := New(docFS())
		require.NoError(t, err)

		tests := []struct {
			name    string
			exists  bool
			content string
		}{
			{"dry-run", true, "Information about dry-run mode"},
			{"architecture", true, "# Architecture\n\nSystem architecture details"},
			{"config", false, ""}, // .txxt not in defaults
			{"ignore", false, ""},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				topic, exists := m.GetTopic(tt.name)
				assert.Equal(t, tt.exists, exists)
				if exists {
					assert.Equal(t, tt.content, topic.Content)
				}
			})
		}
	})

	t.Run("custom extensions", func(t *testing.T) {
		m, err := NewWithOptions(docFS(), Options{
			Extensions: []string{".txt", ".md", ".txxt"},
		})
		require.NoError(t, err)

		topic, exists := m.GetTopic("config")
		require.True(t, exists)
		assert.Equal(t, "Configuration Guide\n==================", topic.Content)
	})
}

func TestManagerLoadsSubdirectories(t *testing.T) {
	fsys := fstest.MapFS{
		"advanced/plugins.txt": {Data: []byte("Plugin help")},
	}

	m, err := New(fsys)
	require.NoError(t, err)

	// Subdirectories group files but do not namespace the topic name.
	topic, exists := m.GetTopic("plugins")
	require.True(t, exists)
	assert.Equal(t, "Plugin help", topic.Content)
	assert.Equal(t, "advanced/plugins.txt", topic.Path)
}

func TestGetTopicFlagStyle(t *testing.T) {
	fsys := fstest.MapFS{
		"option-dry-run.txt": {Data: []byte("Dry run help")},
		"option-verbose.txt": {Data: []byte("Verbose help")},
		"architecture.txt":   {Data: []byte("Architecture help")},
	}

	m, err := New(fsys)
	require.NoError(t, err)

	tests := []struct {
		input    string
		expected string
		exists   bool
	}{
		{"architecture", "architecture", true},
		{"option-dry-run", "option-dry-run", true},
		// Flag-style lookups should find option- prefixed topics.
		{"dry-run", "option-dry-run", true},
		{"--dry-run", "option-dry-run", true},
		{"-dry-run", "option-dry-run", true},
		{"verbose", "option-verbose", true},
		{"-v", "", false}, // single letter flags do not match
		{"--verbose", "option-verbose", true},
		{"nonexistent", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			topic, exists := m.GetTopic(tt.input)
			assert.Equal(t, tt.exists, exists)
			if exists {
				assert.Equal(t, tt.expected, topic.Name)
			}
		})
	}
}

func TestListTopicsSorted(t *testing.T) {
	fsys := fstest.MapFS{
		"sync.txt":      {Data: []byte("a")},
		"manifest.txt":  {Data: []byte("b")},
		"ownership.txt": {Data: []byte("c")},
	}

	m, err := New(fsys)
	require.NoError(t, err)

	assert.Equal(t, []string{"manifest", "ownership", "sync"}, m.ListTopics())
}

func TestEmptyFS(t *testing.T) {
	m, err := New(fstest.MapFS{})
	require.NoError(t, err)
	assert.Empty(t, m.ListTopics())
}

func TestInitializeReplacesHelpCommand(t *testing.T) {
	rootCmd := &cobra.Command{
		Use:   "testapp",
		Short: "Test application",
	}
	rootCmd.AddCommand(&cobra.Command{
		Use:   "sync",
		Short: "Sync something",
		Run:   func(cmd *cobra.Command, args []string) {},
	})

	fsys := fstest.MapFS{
		"test-topic.txt": {Data: []byte("Test topic content")},
	}
	require.NoError(t, Initialize(rootCmd, fsys))

	helpCmd, _, err := rootCmd.Find([]string{"help"})
	require.NoError(t, err)
	assert.Equal(t, "help", helpCmd.Name())
	assert.Equal(t, "help [command or topic]", helpCmd.Use)
}

func TestHelpCommandRendersTopic(t *testing.T) {
	rootCmd := &cobra.Command{
		Use:   "testapp",
		Short: "Test application",
	}

	fsys := fstest.MapFS{
		"dry-run.txt": {Data: []byte("DRY RUN MODE\nThis is a test of dry run help.")},
	}
	require.NoError(t, Initialize(rootCmd, fsys))

	output := captureOutput(t, func() {
		rootCmd.SetArgs([]string{"help", "dry-run"})
		_ = rootCmd.Execute()
	})

	assert.Contains(t, output, "DRY RUN MODE")
}

func TestHelpTopicsListing(t *testing.T) {
	rootCmd := &cobra.Command{
		Use:   "testapp",
		Short: "Test application",
	}

	fsys := fstest.MapFS{
		"ownership.md":       {Data: []byte("# Ownership")},
		"option-dry-run.txt": {Data: []byte("dry run")},
	}
	require.NoError(t, InitializeWithOptions(rootCmd, fsys, Options{}))

	output := captureOutput(t, func() {
		rootCmd.SetArgs([]string{"help", "topics"})
		_ = rootCmd.Execute()
	})

	assert.Contains(t, output, "General topics:")
	assert.Contains(t, output, "ownership")
	assert.Contains(t, output, "Option topics:")
	assert.Contains(t, output, "--dry-run")
	assert.Contains(t, output, "testapp help <topic>")
}

func TestHelpCommandFallsBackToCommands(t *testing.T) {
	rootCmd := &cobra.Command{
		Use:   "testapp",
		Short: "Test application",
	}
	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Sync something useful",
		Run:   func(cmd *cobra.Command, args []string) {},
	}
	syncCmd.Flags().Bool("prune", false, "prune stale entries")
	rootCmd.AddCommand(syncCmd)

	fsys := fstest.MapFS{
		"ownership.txt": {Data: []byte("ownership doc")},
	}
	require.NoError(t, Initialize(rootCmd, fsys))

	// "help sync" is not a topic, so it renders the command's own help.
	output := captureOutput(t, func() {
		rootCmd.SetArgs([]string{"help", "sync"})
		_ = rootCmd.Execute()
	})

	assert.Contains(t, output, "Sync something useful")
	assert.Contains(t, output, "--prune")
}

func TestHelpTopicsListingEmpty(t *testing.T) {
	rootCmd := &cobra.Command{
		Use:   "testapp",
		Short: "Test application",
	}
	require.NoError(t, Initialize(rootCmd, fstest.MapFS{}))

	output := captureOutput(t, func() {
		rootCmd.SetArgs([]string{"help", "topics"})
		_ = rootCmd.Execute()
	})

	assert.Contains(t, output, "No help topics available.")
}

func TestGlamourRendererPassesThroughNonMarkdown(t *testing.T) {
	r := NewGlamourRenderer()
	assert.Equal(t, "plain text", r.Render("plain text", ".txt"))
}
