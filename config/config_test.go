package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultValidates(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestEveryProfileSumsTo100(t *testing.T) {
	cfg := Default()
	for name, w := range cfg.Industries {
		total := 0
		for _, cat := range Categories {
			total += w[cat]
		}
		assert.Equal(t, 100, total, name)
	}
}

func TestWeightsForFallsBack(t *testing.T) {
	cfg := Default()

	w, resolved := cfg.WeightsFor("news")
	assert.Equal(t, "news", resolved)
	assert.Equal(t, 22, w["content"])

	w, resolved = cfg.WeightsFor("no-such-industry")
	assert.Equal(t, "default", resolved)
	assert.Equal(t, cfg.Industries["default"], w)
}

func TestGradeFor(t *testing.T) {
	cfg := Default()
	cases := []struct {
		score int
		want  string
	}{
		{100, "A"}, {90, "A"}, {89, "B"}, {80, "B"},
		{79, "C"}, {70, "C"}, {69, "D"}, {60, "D"},
		{59, "F"}, {0, "F"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, cfg.GradeFor(c.score), "score %d", c.score)
	}
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().Industries, cfg.Industries)
}

func TestLoadOverridesProfile(t *testing.T) {
	yaml := `
industries:
  saas:
    title: 20
    meta_description: 10
    headings: 10
    content: 20
    images: 5
    links: 10
    technical: 15
    social_media: 5
    structured_data: 5
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	w, resolved := cfg.WeightsFor("saas")
	assert.Equal(t, "saas", resolved)
	assert.Equal(t, 20, w["title"])
	// Built-in profiles survive a partial override.
	_, resolved = cfg.WeightsFor("ecommerce")
	assert.Equal(t, "ecommerce", resolved)
}

func TestLoadRejectsBadWeights(t *testing.T) {
	yaml := `
industries:
  broken:
    title: 90
    meta_description: 90
    headings: 10
    content: 20
    images: 5
    links: 10
    technical: 15
    social_media: 5
    structured_data: 5
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
