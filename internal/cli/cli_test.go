package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"recipe-extractor/internal/core/extraction"
	"recipe-extractor/internal/core/recipe"
	"recipe-extractor/internal/infrastructure/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExtractor struct {
	last recipe.Request
	err  error
}

func (f *fakeExtractor) ExtractDetailed(_ context.Context, req recipe.Request) (*extraction.Outcome, error) {
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	return &extraction.Outcome{Result: &recipe.Result{
		Recipe:     recipe.Candidate{Title: "Garlic Noodles"},
		Confidence: recipe.ConfidenceMedium,
		TierChain:  []recipe.Tier{recipe.TierGeneric},
		Found:      true,
	}}, nil
}

func run(t *testing.T, fake *fakeExtractor, args ...string) (*app, string, error) {
	t.Helper()
	var out bytes.Buffer
	cleaned := false
	a := &app{
		version: "1.2.3",
		out:     &out,
		newEngine: func(cfg *config.Config) (Extractor, func(), error) {
			return fake, func() { cleaned = true }, nil
		},
	}
	cmd := newRootCmd(a)
	cmd.SetArgs(args)
	err := cmd.Execute()
	if a.cfg != nil && err == nil {
		assert.True(t, cleaned)
	}
	return a, out.String(), err
}

func TestExtractCommand(t *testing.T) {
	dir := t.TempDir()
	htmlPath := filepath.Join(dir, "page.html")
	require.NoError(t, os.WriteFile(htmlPath, []byte("<html>saved</html>"), 0o600))

	fake := &fakeExtractor{}
	a, out, err := run(t, fake, "extract", "https://example.com/noodles",
		"--html-file", htmlPath, "--platform", "web", "--no-cache", "--ai-provider", "none")
	require.NoError(t, err)

	assert.Equal(t, "https://example.com/noodles", fake.last.Source)
	assert.Equal(t, "<html>saved</html>", fake.last.RawHTML)
	assert.Equal(t, recipe.PlatformWeb, fake.last.PlatformHint)
	assert.False(t, a.cfg.Cache.Enabled)
	assert.Equal(t, "none", a.cfg.AI.Provider)

	var res recipe.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "Garlic Noodles", res.Recipe.Title)
	assert.True(t, res.Found)
}

func TestExtractCommand_Errors(t *testing.T) {
	_, _, err := run(t, &fakeExtractor{}, "extract")
	assert.Error(t, err)

	_, _, err = run(t, &fakeExtractor{}, "extract", "https://example.com/a", "--html-file", "/nonexistent/page.html")
	assert.ErrorContains(t, err, "reading html file")

	_, _, err = run(t, &fakeExtractor{err: recipe.ErrInvalidInput}, "extract", "ftp://x")
	assert.True(t, errors.Is(err, recipe.ErrInvalidInput))
}

func TestVersionCommand(t *testing.T) {
	a, out, err := run(t, &fakeExtractor{}, "version")
	require.NoError(t, err)
	assert.Equal(t, "recipe-extract 1.2.3\n", out)
	assert.Nil(t, a.cfg)
}
