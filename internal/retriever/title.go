package retriever

import (
	"path/filepath"
	"strings"
)

// acronyms stay uppercase in formatted document titles.
var acronyms = map[string]bool{
	"EU":     true,
	"CO2":    true,
	"MRV":    true,
	"CORSIA": true,
	"LULUCF": true,
	"ESR":    true,
	"ETS":    true,
	"CBAM":   true,
	"CSRD":   true,
}

// minorWords stay lowercase unless they open the title.
var minorWords = map[string]bool{
	"and": true, "or": true, "the": true, "of": true, "for": true,
	"in": true, "on": true, "to": true, "a": true, "an": true, "with": true,
}

// urlEscapes are percent-encoded characters that show up in filenames of
// documents downloaded straight from the EU portal.
var urlEscapes = strings.NewReplacer("%2C", ",", "%28", "(", "%29", ")")

// FormatDocumentTitle converts a corpus filename into a readable source
// title: extension stripped, separators replaced with spaces, known EU
// acronyms uppercased, minor words lowered, everything else title-cased.
func FormatDocumentTitle(filename string) string {
	if filename == "" {
		return "Unknown Document"
	}

	title := strings.TrimSuffix(filename, filepath.Ext(filename))
	title = strings.ReplaceAll(title, "_", " ")
	title = strings.ReplaceAll(title, "-", " ")
	title = urlEscapes.Replace(title)

	words := strings.Fields(title)
	for i, word := range words {
		upper := strings.ToUpper(word)
		lower := strings.ToLower(word)
		switch {
		case acronyms[upper]:
			words[i] = upper
		case i > 0 && minorWords[lower]:
			words[i] = lower
		default:
			words[i] = capitalize(lower)
		}
	}
	return strings.Join(words, " ")
}

func capitalize(word string) string {
	if word == "" {
		return word
	}
	return strings.ToUpper(word[:1]) + word[1:]
}
