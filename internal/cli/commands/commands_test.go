package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/ionoview/internal/accumulate"
	"github.com/leapstack-labs/ionoview/internal/catalog"
	"github.com/leapstack-labs/ionoview/internal/cli/config"
	"github.com/leapstack-labs/ionoview/internal/cli/testutil"
	"github.com/leapstack-labs/ionoview/internal/ionogram/ionogramtest"
)

// loadProject writes ionoview.yaml into a fresh project directory, switches
// into it and loads the configuration.
func loadProject(t *testing.T, yaml string) *config.Config {
	t.Helper()
	config.ResetConfig()
	t.Cleanup(config.ResetConfig)

	project := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(project, "ionoview.yaml"), []byte(yaml), 0o600))
	t.Chdir(project)

	cfg, err := config.LoadConfig("", nil)
	require.NoError(t, err)
	return cfg
}

func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	if args == nil {
		args = []string{}
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// =============================================================================
// Command metadata
// =============================================================================

func TestCommandMetadata(t *testing.T) {
	tests := []struct {
		cmd   *cobra.Command
		use   string
		flags []string
	}{
		{NewServeCommand(), "serve", []string{"host", "port", "open", "watch", "dev"}},
		{NewIndexCommand(), "index", nil},
		{NewLookupCommand(), "lookup <date>", []string{"walk"}},
		{NewPassportCommand(), "passport <file>", []string{"chart"}},
		{NewAccumulateCommand(), "accumulate", []string{"folder-in", "folder-out", "from", "to", "delta", "workers", "check"}},
	}
	for _, tt := range tests {
		t.Run(tt.use, func(t *testing.T) {
			assert.Equal(t, tt.use, tt.cmd.Use)
			assert.NotEmpty(t, tt.cmd.Short, "Short should not be empty")
			assert.NotEmpty(t, tt.cmd.Example, "Example should not be empty")
			for _, flag := range tt.flags {
				assert.NotNil(t, tt.cmd.Flags().Lookup(flag), "flag %q should exist", flag)
			}
		})
	}

	assert.Equal(t, []string{"ui"}, NewServeCommand().Aliases)
}

// =============================================================================
// lookup
// =============================================================================

func TestLookup_Walk(t *testing.T) {
	root := testutil.SetupTestData(t)
	loadProject(t, "root: "+root+"\nuse_index: false\noutput: json\n")

	out, err := execute(t, NewLookupCommand(), "2020-03-15")
	require.NoError(t, err)

	var res LookupResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, []catalog.DateFileEntry{
		{FileName: "03_15_12_30_00.dat", Path: filepath.Join(root, "vs")},
		{FileName: "03_15_12_45_00.dat", Path: filepath.Join(root, "vs")},
	}, res.Files)
}

func TestLookup_Markdown(t *testing.T) {
	root := testutil.SetupTestData(t)
	loadProject(t, "root: "+root+"\nuse_index: false\noutput: markdown\n")

	out, err := execute(t, NewLookupCommand(), "2024-03-16")
	require.NoError(t, err)
	assert.Contains(t, out, "# Recordings of 16.03")
	assert.Contains(t, out, "| 03_16_08_00_15.dat | "+filepath.Join(root, "ns", "2023")+" |")
	testutil.AssertNoANSI(t, out)

	out, err = execute(t, NewLookupCommand(), "2024-01-01")
	require.NoError(t, err)
	assert.Contains(t, out, "No files for this date")
}

func TestLookup_InvalidDate(t *testing.T) {
	root := testutil.SetupTestData(t)
	loadProject(t, "root: "+root+"\n")

	_, err := execute(t, NewLookupCommand(), "15.03.2024")
	assert.ErrorIs(t, err, catalog.ErrInvalidDate)
}

// =============================================================================
// index
// =============================================================================

func TestIndex_ThenLookupUsesIndex(t *testing.T) {
	root := testutil.SetupTestData(t)
	cfg := loadProject(t, "root: "+root+"\nindex_path: state/index.db\noutput: json\n")

	out, err := execute(t, NewIndexCommand())
	require.NoError(t, err)

	var res IndexResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 3, res.Files)
	assert.Equal(t, cfg.IndexPath, res.Path)
	assert.FileExists(t, cfg.IndexPath)

	// A recording added after indexing is only seen by a walk.
	ionogramtest.Default().Write(t, filepath.Join(root, "vs"), "03_15_13_00_00.dat")

	out, err = execute(t, NewLookupCommand(), "2024-03-15")
	require.NoError(t, err)
	var indexed LookupResult
	require.NoError(t, json.Unmarshal([]byte(out), &indexed))
	assert.Len(t, indexed.Files, 2)

	out, err = execute(t, NewLookupCommand(), "2024-03-15", "--walk")
	require.NoError(t, err)
	var walked LookupResult
	require.NoError(t, json.Unmarshal([]byte(out), &walked))
	assert.Len(t, walked.Files, 3)
}

func TestIndex_MissingRoot(t *testing.T) {
	loadProject(t, "root: does-not-exist\n")

	_, err := execute(t, NewIndexCommand())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

// =============================================================================
// passport
// =============================================================================

func TestPassport(t *testing.T) {
	root := testutil.SetupTestData(t)
	loadProject(t, "root: "+root+"\noutput: markdown\n")
	file := filepath.Join(root, "vs", "03_15_12_30_00.dat")
	svg := filepath.Join(t.TempDir(), "chart.svg")

	out, err := execute(t, NewPassportCommand(), file, "--chart", svg)
	require.NoError(t, err)
	assert.Contains(t, out, "# "+file)
	assert.Contains(t, out, "```text\n")
	assert.Contains(t, out, "Иркутск")

	data, err := os.ReadFile(svg)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "<svg "))
}

func TestPassport_JSON(t *testing.T) {
	root := testutil.SetupTestData(t)
	loadProject(t, "root: "+root+"\noutput: json\n")

	out, err := execute(t, NewPassportCommand(), filepath.Join(root, "vs", "03_15_12_30_00.dat"))
	require.NoError(t, err)

	var res PassportResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "2024-03-15T12:30:00Z", res.Time)
	assert.Equal(t, 4, res.Echoes)
	assert.Equal(t, 4, res.Noise)
	assert.NotEmpty(t, res.Params)
}

func TestPassport_Undecodable(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.dat")
	require.NoError(t, os.WriteFile(bad, []byte("garbage"), 0o600))
	loadProject(t, "root: "+dir+"\n")

	_, err := execute(t, NewPassportCommand(), bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot read ionogram")
}

// =============================================================================
// accumulate
// =============================================================================

func TestAccumulate(t *testing.T) {
	base := t.TempDir()
	day := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	in := filepath.Join(base, "in", "{MONTH}{DAY}")
	for _, s := range []int{0, 15} {
		ionogramtest.Default().Write(t, accumulate.ExpandFolder(in, day), accumulate.FileName(day, 12, 30, s))
	}

	loadProject(t, strings.Join([]string{
		"root: " + base,
		"output: json",
		"accumulate:",
		"  folder_in: '" + in + "'",
		"  folder_out: '" + filepath.Join(base, "out") + "'",
		"  date_from: \"2024-03-15\"",
		"  delta_minutes: 60",
		"  workers: 2",
	}, "\n"))

	out, err := execute(t, NewAccumulateCommand())
	require.NoError(t, err)

	var res accumulate.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 24, res.Windows)
	assert.Equal(t, int64(1), res.Written)
	assert.FileExists(t, filepath.Join(base, "out", "03_15_12_00_00.dat"))

	out, err = execute(t, NewAccumulateCommand(), "--check")
	require.NoError(t, err)
	var check accumulate.Resolution
	require.NoError(t, json.Unmarshal([]byte(out), &check))
	assert.Equal(t, 512, check.First)
	assert.Empty(t, check.Different)
}

func TestAccumulate_MissingDates(t *testing.T) {
	loadProject(t, "root: .\n")

	_, err := execute(t, NewAccumulateCommand())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid date")
}
