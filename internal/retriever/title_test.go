package retriever

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatDocumentTitle(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		want     string
	}{
		{"empty", "", "Unknown Document"},
		{"underscores and acronym", "eu_climate_law.pdf", "EU Climate Law"},
		{"hyphens", "farm-to-fork-strategy.md", "Farm to Fork Strategy"},
		{"acronym mid-title", "cbam_implementation_guide.txt", "CBAM Implementation Guide"},
		{"minor word not first", "taxonomy_of_sustainable_activities.pdf", "Taxonomy of Sustainable Activities"},
		{"minor word first is capitalized", "the_ets_directive.pdf", "The ETS Directive"},
		{"url escapes", "emissions%2C_monitoring_%28MRV%29.pdf", "Emissions, Monitoring (mrv)"},
		{"mixed case input", "EU_LULUCF_Regulation.md", "EU LULUCF Regulation"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatDocumentTitle(tt.filename))
		})
	}
}
