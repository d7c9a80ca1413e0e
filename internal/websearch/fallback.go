package websearch

import "github.com/verdana-ai/verdana/internal/storage"

// fallbackResults is a small fixed set of canonical references served
// when no search provider is configured. Tagged SourceFallback so the
// composer can treat them as lower-confidence than live results.
var fallbackResults = []storage.SearchResult{
	{
		Title:      "European Green Deal",
		URL:        "https://ec.europa.eu/info/strategy/priorities-2019-2024/european-green-deal_en",
		Content:    "The European Green Deal is a set of policy initiatives by the European Commission with the overarching aim of making the European Union climate neutral in 2050.",
		Similarity: 0.9,
		Type:       storage.SourceFallback,
	},
	{
		Title:      "EU Climate Law",
		URL:        "https://ec.europa.eu/clima/eu-action/european-green-deal/european-climate-law_en",
		Content:    "The European Climate Law makes the EU's commitment to reach climate neutrality by 2050 legally binding.",
		Similarity: 0.8,
		Type:       storage.SourceFallback,
	},
}

// FallbackResults returns up to max canonical reference entries.
func FallbackResults(max int) []storage.SearchResult {
	if max <= 0 || max > len(fallbackResults) {
		max = len(fallbackResults)
	}
	out := make([]storage.SearchResult, max)
	copy(out, fallbackResults[:max])
	return out
}
