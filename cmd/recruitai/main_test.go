package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiranshivaraju/recruitai/internal/extract"
	"github.com/kiranshivaraju/recruitai/internal/keys"
	"github.com/kiranshivaraju/recruitai/pkg/models"
)

func unsetAfter(t *testing.T, names ...string) {
	t.Helper()
	t.Cleanup(func() {
		for _, n := range names {
			os.Unsetenv(n)
		}
	})
}

func TestLoadConfigFile_ExportsKeysAsEnv(t *testing.T) {
	unsetAfter(t, "RECRUITAI_TEST_PROVIDER", "RECRUITAI_TEST_MODELS", "RECRUITAI_TEST_BATCH_MAX_ITEMS")
	t.Setenv("RECRUITAI_TEST_KEEP", "from-env")

	path := filepath.Join(t.TempDir(), "recruitai.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`recruitai_test_provider: gemini
recruitai_test_models: [a, b]
recruitai_test_keep: from-file
recruitai_test_batch:
  max-items: 5
`), 0o600))

	require.NoError(t, loadConfigFile(path))

	assert.Equal(t, "gemini", os.Getenv("RECRUITAI_TEST_PROVIDER"))
	assert.Equal(t, "a,b", os.Getenv("RECRUITAI_TEST_MODELS"))
	assert.Equal(t, "5", os.Getenv("RECRUITAI_TEST_BATCH_MAX_ITEMS"))
	assert.Equal(t, "from-env", os.Getenv("RECRUITAI_TEST_KEEP"), "environment must win over the file")
}

func TestLoadConfigFile_Missing(t *testing.T) {
	err := loadConfigFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestPrintKeys_Table(t *testing.T) {
	failed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	var buf bytes.Buffer
	err := printKeys(&buf, []keys.CredentialStatus{
		{Index: 1, Key: "gsk_...mnop", Current: true},
		{Index: 2, Key: "****", CoolingDown: true, FailedAt: &failed},
	}, false)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "INDEX")
	assert.Contains(t, out, "gsk_...mnop")
	assert.Contains(t, out, "2026-01-02T03:04:05Z")
}

func TestPrintKeys_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printKeys(&buf, []keys.CredentialStatus{{Index: 1, Key: "****"}}, true))

	var got []keys.CredentialStatus
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "****", got[0].Key)
}

func TestPrintResults(t *testing.T) {
	b := &models.Batch{Items: []models.BatchItem{
		{
			Identifier:  "alice.pdf",
			Analysis:    models.AnalysisResult{Score: 90, MissingSkills: []string{"Go", "SQL"}},
			Acceptable:  true,
			IsBestMatch: true,
			EmailType:   models.EmailAcceptance,
		},
		{Identifier: "broken.pdf", Error: "extraction failed"},
	}}

	var buf bytes.Buffer
	printResults(&buf, b)

	out := buf.String()
	assert.Contains(t, out, "alice.pdf")
	assert.Contains(t, out, "Go, SQL")
	assert.Contains(t, out, "acceptance")
	assert.Contains(t, out, "extraction failed")
}

func TestFileItems_LoadOnDemand(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "alice.txt")
	require.NoError(t, os.WriteFile(good, []byte("  Go developer  "), 0o600))
	empty := filepath.Join(dir, "empty.txt")
	require.NoError(t, os.WriteFile(empty, []byte("   "), 0o600))

	items := fileItems([]string{good, empty})
	require.Len(t, items, 2)
	assert.Equal(t, "alice.txt", items[0].Identifier)

	text, err := items[0].Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Go developer", text)

	_, err = items[1].Load(context.Background())
	assert.ErrorIs(t, err, extract.ErrEmptyDocument)
}

func TestAnalyze_RejectsBadDirection(t *testing.T) {
	err := analyze(context.Background(), &bytes.Buffer{}, analyzeOptions{direction: "sideways", counterpart: "jd.txt"}, []string{"a.txt"})
	assert.ErrorContains(t, err, "--direction")
}

func TestAnalyze_RejectsUnsupportedFiles(t *testing.T) {
	err := analyze(context.Background(), &bytes.Buffer{}, analyzeOptions{direction: "resumes", counterpart: "jd.txt"}, []string{"photo.png"})
	assert.ErrorIs(t, err, extract.ErrUnsupportedFormat)
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "analyze", "mcp", "keys", "job-description", "version"} {
		assert.True(t, names[want], want)
	}
}

func TestVersionCommand(t *testing.T) {
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() { rootCmd.SetOut(nil); rootCmd.SetArgs(nil) })

	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, version+"\n", buf.String())
}
