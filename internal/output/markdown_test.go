package output

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/selivandex/stockbrief/pkg/models"
)

func TestMarkdownWriterSavesReport(t *testing.T) {
	dir := t.TempDir()
	path, err := NewMarkdownWriter(dir).Write(sampleReport())
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "AAPL_2024-06-03.md"), path)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(raw)

	for _, want := range []string{
		"# AAPL / Apple Inc",
		"_Generated 2024-06-03_",
		"## Price Snapshot",
		"| Market Cap | $2.90T |",
		"## Sentiment",
		"| Overall | +0.62 | Bullish (confidence 80%) |",
		"## Bull Case",
		"## Bear Case",
		"## News Summary",
		"## Reddit Pulse",
		"## SEC Filings",
		"## Earnings",
		"Last quarter: **Beat** (34 days until next earnings)",
		"## Discrepancies",
		"## Key Signals",
		"## Technical Snapshot",
		"## Verdict",
		"## Data Quality",
		"not financial advice",
	} {
		assert.Contains(t, out, want)
	}
}

func TestMarkdownWriterSuffixedSymbolFilename(t *testing.T) {
	dir := t.TempDir()
	report := sampleReport()
	report.Subject = models.NewSubject("SHOP.TO")

	path, err := NewMarkdownWriter(dir).Write(report)
	require.NoError(t, err)
	assert.Equal(t, "SHOP_TO_2024-06-03.md", filepath.Base(path))
}

func TestMarkdownWriterDegradedReport(t *testing.T) {
	dir := t.TempDir()
	report := sampleReport()
	report.Analysis = &models.AnalysisResult{
		Degraded:    true,
		RawResponse: "not json",
	}

	path, err := NewMarkdownWriter(dir).Write(report)
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(raw)

	assert.Contains(t, out, "## Raw Model Response")
	assert.Contains(t, out, "```\nnot json\n```")
	assert.NotContains(t, out, "## Sentiment")
}

func TestMarkdownWriterCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "reports")
	path, err := NewMarkdownWriter(dir).Write(sampleReport())
	require.NoError(t, err)
	assert.FileExists(t, path)
}
