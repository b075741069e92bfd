package sources

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultDescriptors(t *testing.T) {
	t.Run("without relay", func(t *testing.T) {
		ds := DefaultDescriptors("")
		require.Len(t, ds, 4)
		assert.Equal(t, "youtubetranscripts", ds[0].Name)
		assert.Equal(t, "youtube-timedtext", ds[3].Name)
		assert.Equal(t, KindXML, ds[3].Kind)
	})
	t.Run("relay first", func(t *testing.T) {
		ds := DefaultDescriptors("http://127.0.0.1:8892/api/transcript")
		require.Len(t, ds, 5)
		assert.Equal(t, "relay", ds[0].Name)
		assert.Equal(t, "POST", ds[0].Method)
		assert.Equal(t, KindXML, ds[0].Kind)
	})
}

func TestExpand(t *testing.T) {
	d := SourceDescriptor{
		Name: "x",
		URL:  "https://x.test/api?videoId={videoId}&lang={lang}",
		Kind: KindJSON,
		Body: `{"videoId":"{videoId}","lang":"{lang}"}`,
	}
	c := d.Expand(`a b&"c`, "pt-BR")
	assert.Equal(t, "https://x.test/api?videoId=a+b%26%22c&lang=pt-BR", c.URL)
	assert.Equal(t, `{"videoId":"a b&\"c","lang":"pt-BR"}`, c.Body)
	assert.Equal(t, "GET", c.Method)
	assert.Equal(t, "pt-BR", c.Language)
}

func TestCandidates(t *testing.T) {
	ds := []SourceDescriptor{
		{Name: "a", URL: "https://a.test/{videoId}/{lang}", Kind: KindJSON},
		{Name: "b", URL: "https://b.test/{videoId}/{lang}", Kind: KindXML},
	}

	t.Run("english runs the chain once", func(t *testing.T) {
		cs := Candidates(ds, "vid", "en")
		require.Len(t, cs, 2)
		assert.Equal(t, "https://a.test/vid/en", cs[0].URL)
		assert.Equal(t, "https://b.test/vid/en", cs[1].URL)
	})

	t.Run("other language repeats the chain in english", func(t *testing.T) {
		cs := Candidates(ds, "vid", "es")
		require.Len(t, cs, 4)
		var got []string
		for _, c := range cs {
			got = append(got, c.Name+":"+c.Language)
		}
		assert.Equal(t, []string{"a:es", "b:es", "a:en", "b:en"}, got)
	})
}

func TestLoadDescriptors(t *testing.T) {
	write := func(t *testing.T, content string) string {
		t.Helper()
		p := filepath.Join(t.TempDir(), "sources.yaml")
		require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
		return p
	}

	t.Run("valid", func(t *testing.T) {
		p := write(t, `
sources:
  - name: relay
    url: http://127.0.0.1:8892/api/transcript
    kind: xml
    method: post
    body: '{"videoId":"{videoId}","lang":"{lang}"}'
  - url: https://example.test/api?v={videoId}
`)
		ds, err := LoadDescriptors(p)
		require.NoError(t, err)
		require.Len(t, ds, 2)
		assert.Equal(t, KindXML, ds[0].Kind)
		assert.Equal(t, "POST", ds[0].Expand("v", "en").Method)
		assert.Equal(t, "source-2", ds[1].Name)
		assert.Equal(t, KindJSON, ds[1].Kind)
	})

	t.Run("missing url", func(t *testing.T) {
		_, err := LoadDescriptors(write(t, "sources:\n  - name: broken\n"))
		assert.ErrorContains(t, err, "url is required")
	})

	t.Run("unknown kind", func(t *testing.T) {
		_, err := LoadDescriptors(write(t, "sources:\n  - url: https://x.test\n    kind: csv\n"))
		assert.ErrorContains(t, err, "unknown kind")
	})

	t.Run("empty list", func(t *testing.T) {
		_, err := LoadDescriptors(write(t, "sources: []\n"))
		assert.ErrorContains(t, err, "no sources defined")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadDescriptors(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})
}
