package meta

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSource = `//+------------------------------------------------------------------+
#property copyright "Example Corp"
#property link      "https://example.com"
#property version   "1.20"

int OnInit() { return INIT_SUCCEEDED; }
`

func writeTemp(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func TestExtractSourceProperties(t *testing.T) {
	path := writeTemp(t, "ea.mq4", []byte(sampleSource))

	d := Extract(path, ".mq4", false)
	require.NotNil(t, d.Copyright)
	assert.Equal(t, "Example Corp", *d.Copyright)
	require.NotNil(t, d.Link)
	assert.Equal(t, "https://example.com", *d.Link)
	require.NotNil(t, d.Version)
	assert.Equal(t, "1.20", *d.Version)
	assert.NotNil(t, d.Encoding)
	assert.Nil(t, d.Text)
}

func TestExtractSourceUTF16LE(t *testing.T) {
	// MetaEditor saves sources as UTF-16LE with a BOM.
	src := "#property copyright \"Wide Corp\"\n"
	raw := []byte{0xFF, 0xFE}
	for _, r := range src {
		raw = append(raw, byte(r), 0x00)
	}
	path := writeTemp(t, "wide.mq5", raw)

	d := Extract(path, ".mq5", false)
	require.NotNil(t, d.Copyright)
	assert.Equal(t, "Wide Corp", *d.Copyright)
	require.NotNil(t, d.Encoding)
	assert.Equal(t, "utf-16le", *d.Encoding)
}

func TestExtractSourceMissingProperties(t *testing.T) {
	path := writeTemp(t, "bare.mqh", []byte("int Helper() { return 0; }\n"))

	d := Extract(path, ".mqh", false)
	assert.Nil(t, d.Copyright)
	assert.Nil(t, d.Version)
	assert.Nil(t, d.Link)
	assert.NotNil(t, d.Encoding)
}

func TestExtractSourceDumpText(t *testing.T) {
	path := writeTemp(t, "ea.mq4", []byte(sampleSource))

	d := Extract(path, ".mq4", true)
	require.NotNil(t, d.Text)
	assert.Contains(t, *d.Text, "OnInit")
}

func TestExtractProject(t *testing.T) {
	path := writeTemp(t, "strategy.mqproj", []byte(`{
		"platform": "mt5",
		"copyright": "Example Corp",
		"version": "2.3",
		"link": "https://example.com/strategy"
	}`))

	d := Extract(path, ".mqproj", false)
	require.NotNil(t, d.Copyright)
	assert.Equal(t, "Example Corp", *d.Copyright)
	require.NotNil(t, d.Version)
	assert.Equal(t, "2.3", *d.Version)
	require.NotNil(t, d.Link)
	assert.Equal(t, "https://example.com/strategy", *d.Link)
}

func TestExtractProjectBadJSON(t *testing.T) {
	path := writeTemp(t, "broken.mqproj", []byte("not json at all"))
	assert.Equal(t, Details{}, Extract(path, ".mqproj", false))
}

func TestExtractNonSourceExtension(t *testing.T) {
	path := writeTemp(t, "sound.wav", []byte{0x52, 0x49, 0x46, 0x46})
	assert.Equal(t, Details{}, Extract(path, ".wav", false))
}

func TestExtractMissingFile(t *testing.T) {
	assert.Equal(t, Details{}, Extract("/nonexistent/ea.mq4", ".mq4", false))
}

func TestExtractInlinePropertyNotMatched(t *testing.T) {
	// Property directives must start the line; mentions in code do not count.
	path := writeTemp(t, "tricky.mq4", []byte(`string s = "#property copyright \"Fake\"";`))

	d := Extract(path, ".mq4", false)
	assert.Nil(t, d.Copyright)
}
