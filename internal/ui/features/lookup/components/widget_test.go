package components

import (
	"context"
	"strings"
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/ionoview/internal/catalog"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var b strings.Builder
	require.NoError(t, c.Render(context.Background(), &b))
	return b.String()
}

func TestWidget(t *testing.T) {
	html := render(t, Widget("2024-03-15", "c1"))

	assert.Contains(t, html, `<section id="date-lookup" class="date-lookup"`)
	assert.Contains(t, html, `data-signals="{&#34;clientId&#34;:&#34;c1&#34;,&#34;date&#34;:&#34;2024-03-15&#34;,&#34;lookupToken&#34;:0,&#34;showList&#34;:false}"`)
	assert.Contains(t, html, `<input type="date" id="lookup-date" value="2024-03-15" data-bind:date data-on:change="$showList = true; $lookupToken++; @get('/lookup')">`)
	assert.Contains(t, html, `<ul id="date-files" class="date-files" data-show="$showList"></ul></section>`)
}

func TestList(t *testing.T) {
	tests := []struct {
		name string
		data ListData
		want string
	}{
		{"idle", ListData{}, `<ul id="date-files" class="date-files" data-show="$showList"></ul>`},
		{"loading", ListData{Loading: true}, `<li class="placeholder">` + LoadingText + `</li>`},
		{"failed", ListData{Failed: true, Err: "disk <gone>"}, `<li class="placeholder error">Lookup failed: disk &lt;gone&gt;</li>`},
		{"empty", ListData{Entries: []catalog.DateFileEntry{}}, `<li class="placeholder">` + EmptyText + `</li>`},
		{
			"entries",
			ListData{Entries: []catalog.DateFileEntry{{FileName: "03_15_12_30_00.dat", Path: "/data/vs"}}},
			`<li><a href="?path=/data/vs&amp;file=03_15_12_30_00.dat" title="/data/vs">03_15_12_30_00.dat</a></li>`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, render(t, List(tt.data)), tt.want)
		})
	}
}

func TestList_KeepsDriveLetterLinks(t *testing.T) {
	html := render(t, List(ListData{Entries: []catalog.DateFileEntry{{FileName: "03_15_12_30_00.dat", Path: "C:/data"}}}))
	assert.Contains(t, html, `href="?path=C:/data&amp;file=03_15_12_30_00.dat"`)
	assert.NotContains(t, html, "TemplFailedSanitizationURL")
}
