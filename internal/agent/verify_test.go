package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/verdana-ai/verdana/internal/storage"
)

func TestVerifyNoWebSources(t *testing.T) {
	kb := []storage.SearchResult{kbResult("a.pdf", 0.9)}

	report := VerifyAgainstWeb(kb, nil)

	assert.Equal(t, 1, report.KBSourceCount)
	assert.Zero(t, report.WebSourceCount)
	assert.Equal(t, 0.8, report.Confidence)
	assert.Equal(t, RecommendUseKnowledgeBase, report.Recommendation)
	assert.NotEmpty(t, report.Note)
}

func TestVerifyDetectsRecentUpdates(t *testing.T) {
	web := []storage.SearchResult{
		{Title: "News", Content: "The regulation was amended last month with new thresholds."},
	}

	report := VerifyAgainstWeb(nil, web)

	assert.Equal(t, RecommendCombineSources, report.Recommendation)
	assert.Equal(t, 0.6, report.Confidence)
	assert.NotEmpty(t, report.UpdatesFound)
	assert.Empty(t, report.Confirmations)
}

func TestVerifyConfirmsAlignedSources(t *testing.T) {
	web := []storage.SearchResult{
		{Title: "Overview", Content: "The directive sets binding targets for member states."},
	}

	report := VerifyAgainstWeb(nil, web)

	assert.Equal(t, RecommendUseKnowledgeBase, report.Recommendation)
	assert.Equal(t, 0.9, report.Confidence)
	assert.NotEmpty(t, report.Confirmations)
	assert.Empty(t, report.UpdatesFound)
}

func TestVerifyKeepsTopThreeWebSources(t *testing.T) {
	web := []storage.SearchResult{
		{Title: "1", Content: "a"}, {Title: "2", Content: "b"},
		{Title: "3", Content: "c"}, {Title: "4", Content: "d"},
	}

	report := VerifyAgainstWeb(nil, web)
	assert.Len(t, report.WebSources, 3)
	assert.Equal(t, 4, report.WebSourceCount)
}
