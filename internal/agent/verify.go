package agent

import (
	"strings"
	"time"

	"github.com/verdana-ai/verdana/internal/storage"
)

// Recommendation tags produced by verification.
const (
	RecommendUseKnowledgeBase = "use_rag"
	RecommendCombineSources   = "combine_sources"
)

// VerificationReport summarizes a cross-check of knowledge-base content
// against current web sources. It is transient and never persisted.
type VerificationReport struct {
	KBSourceCount  int                    `json:"kb_sources_count"`
	WebSourceCount int                    `json:"web_sources_count"`
	Timestamp      time.Time              `json:"verification_timestamp"`
	Confidence     float64                `json:"confidence_score"`
	Confirmations  []string               `json:"confirmations"`
	Discrepancies  []string               `json:"discrepancies"`
	UpdatesFound   []string               `json:"updates_found"`
	Recommendation string                 `json:"recommendation"`
	Note           string                 `json:"note,omitempty"`
	WebSources     []storage.SearchResult `json:"web_sources,omitempty"`
}

// recencyIndicators signal that web content carries newer policy
// information than the knowledge base.
var recencyIndicators = []string{
	"2024", "2025", "2026", "updated", "amended", "new regulation", "latest",
}

// VerifyAgainstWeb judges whether already-fetched web results confirm or
// supersede the knowledge-base results.
func VerifyAgainstWeb(kb, web []storage.SearchResult) VerificationReport {
	report := VerificationReport{
		KBSourceCount:  len(kb),
		WebSourceCount: len(web),
		Timestamp:      time.Now().UTC(),
		Recommendation: RecommendUseKnowledgeBase,
	}

	if len(web) == 0 {
		report.Confidence = 0.8
		report.Note = "no recent web sources found for verification"
		return report
	}

	var joined strings.Builder
	for _, r := range web {
		joined.WriteString(strings.ToLower(r.Content))
		joined.WriteByte(' ')
	}
	content := joined.String()

	hasUpdates := false
	for _, indicator := range recencyIndicators {
		if strings.Contains(content, indicator) {
			hasUpdates = true
			break
		}
	}

	if hasUpdates {
		report.UpdatesFound = []string{"recent policy updates detected in web sources"}
		report.Confidence = 0.6
		report.Recommendation = RecommendCombineSources
	} else {
		report.Confirmations = []string{"web sources generally align with knowledge base information"}
		report.Confidence = 0.9
	}

	if len(web) > 3 {
		web = web[:3]
	}
	report.WebSources = web
	return report
}
