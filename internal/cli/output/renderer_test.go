package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTest(mode OutputMode, tty bool) (*Renderer, *bytes.Buffer, *bytes.Buffer) {
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	return NewRendererWithTTY(out, errOut, tty, mode), out, errOut
}

func TestMode(t *testing.T) {
	tests := map[string]OutputMode{
		"":         ModeAuto,
		"auto":     ModeAuto,
		"TEXT":     ModeText,
		" json ":   ModeJSON,
		"md":       ModeMarkdown,
		"markdown": ModeMarkdown,
		"html":     ModeAuto,
	}
	for in, want := range tests {
		assert.Equal(t, want, Mode(in), "Mode(%q)", in)
	}
}

func TestEffectiveMode(t *testing.T) {
	r, _, _ := newTest(ModeAuto, true)
	assert.Equal(t, ModeText, r.EffectiveMode())

	r, _, _ = newTest(ModeAuto, false)
	assert.Equal(t, ModeMarkdown, r.EffectiveMode())

	r, _, _ = newTest(ModeJSON, true)
	assert.Equal(t, ModeJSON, r.EffectiveMode())
}

func TestRenderer_Markdown(t *testing.T) {
	r, out, errOut := newTest(ModeMarkdown, false)

	r.Header(2, "Files")
	r.KeyValue("Date", "2024-03-15")
	r.Table([]string{"File", "Path"}, [][]string{{"03_15_12_30_00.dat", "/data/vs"}})
	r.Success("done")
	r.Error("boom")

	s := out.String()
	assert.Contains(t, s, "## Files\n")
	assert.Contains(t, s, "- **Date**: 2024-03-15\n")
	assert.Contains(t, s, "| File | Path |")
	assert.Contains(t, s, "| 03_15_12_30_00.dat | /data/vs |")
	assert.Contains(t, s, "✓ done")
	assert.Contains(t, errOut.String(), "✗ boom")
	assert.NotContains(t, s+errOut.String(), "\x1b[", "no ANSI codes off a terminal")
}

func TestRenderer_TextTable(t *testing.T) {
	r, out, _ := newTest(ModeText, false)

	r.Table([]string{"File"}, [][]string{{"a.dat"}, {"b.dat"}})

	s := out.String()
	assert.Contains(t, s, "┌")
	assert.Contains(t, s, "a.dat")
	assert.Contains(t, s, "b.dat")
}

func TestRenderer_StatusLine(t *testing.T) {
	r, out, _ := newTest(ModeText, false)

	r.StatusLine("index", "success", "12 files")
	r.StatusLine("watch", "unknown", "")

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "✓ index 12 files", lines[0])
	assert.Equal(t, "- watch", lines[1])
}

func TestRenderer_JSONAndYAML(t *testing.T) {
	r, out, _ := newTest(ModeJSON, false)

	require.NoError(t, r.JSON(map[string]int{"files": 2}))
	assert.Equal(t, "{\n  \"files\": 2\n}\n", out.String())

	out.Reset()
	require.NoError(t, r.YAML(map[string]any{"ui": map[string]int{"port": 8765}}))
	assert.Equal(t, "ui:\n  port: 8765\n", out.String())
}

func TestFormatters(t *testing.T) {
	assert.Equal(t, "# Title", FormatHeader(0, "Title"))
	assert.Equal(t, "### Title", FormatHeader(3, "Title"))
	assert.Equal(t, "- **Key**: value", FormatKeyValue("Key", "value"))
	assert.Equal(t, "```text\nline\n```", FormatCodeBlock("text", "line\n"))
}
