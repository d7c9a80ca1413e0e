package agent

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/verdana-ai/verdana/internal/storage"
)

// CreatorName and CreatorURL identify the system's author, surfaced only
// on identity questions.
const (
	CreatorName = "Emmi C."
	CreatorURL  = "https://emmi.zone"
)

// languageNames maps ISO codes to readable names for the language
// instruction in prompts.
var languageNames = map[string]string{
	"en": "English", "ro": "Romanian", "fr": "French", "de": "German",
	"es": "Spanish", "it": "Italian", "pl": "Polish", "pt": "Portuguese",
	"nl": "Dutch", "da": "Danish", "sv": "Swedish", "fi": "Finnish",
	"el": "Greek", "hu": "Hungarian", "cs": "Czech", "sk": "Slovak",
	"sl": "Slovenian", "bg": "Bulgarian", "hr": "Croatian", "et": "Estonian",
	"lv": "Latvian", "lt": "Lithuanian", "mt": "Maltese",
}

func languageName(code string) string {
	if name, ok := languageNames[code]; ok {
		return name
	}
	return strings.ToUpper(code)
}

// policyPrompt builds the system message for in-domain queries: persona,
// retrieved context and behavioral instructions.
func policyPrompt(language, context string, starter, followUp bool) string {
	var b strings.Builder

	b.WriteString(`You are Verdana, an expert AI assistant specializing in European Union Green Deal policies and environmental regulations.

**CONVERSATION CONTEXT:**
`)
	if starter {
		b.WriteString("This is the start of a new conversation. Briefly introduce yourself as Verdana, the EU Green Policy Specialist.\n")
	} else {
		b.WriteString("This is a continuing conversation. Do NOT re-introduce yourself. Build on the previous conversation context and directly answer the user's question.\n")
	}
	if followUp {
		b.WriteString("The user is asking a follow-up about the topic you just discussed. Continue that topic; never ask them to restate what they want more information about.\n")
	}

	b.WriteString(`
**YOUR EXPERTISE:**
- European Green Deal and comprehensive policy framework
- Carbon Border Adjustment Mechanism (CBAM)
- Farm to Fork Strategy and sustainable food systems
- Biodiversity Strategy for 2030
- Circular Economy Action Plan
- Fit for 55 climate package
- EU Taxonomy for sustainable activities
- Corporate Sustainability Reporting Directive (CSRD)

**COMMUNICATION STYLE:**
1. Be conversational and natural - build on previous messages
2. Provide accurate, source-backed information
3. Explain complex regulations in accessible terms
4. Include practical implications for businesses and individuals
5. Mention relevant deadlines and compliance requirements

Do NOT include any source listings or citations in your response text - sources are handled separately.
`)

	if context != "" {
		b.WriteString("\n**RELEVANT CONTEXT:**\n")
		b.WriteString(context)
		b.WriteString("\n\nUse this context to inform your response, synthesizing the information to provide a comprehensive, helpful answer. If the context and your own knowledge conflict, note it and explain which source is more current.\n")
	}

	if language != "" && language != "en" {
		fmt.Fprintf(&b, "\nRespond in %s and keep the conversation in that language for the whole session.\n", languageName(language))
	}

	return b.String()
}

// casualPrompt builds the system message for greetings and small talk.
func casualPrompt(language string) string {
	var b strings.Builder
	b.WriteString(`You are Verdana, a friendly AI assistant specializing in EU Green Deal policies.

The user is making casual conversation. Respond warmly and naturally:
- For greetings: greet them back and offer to help
- For thanks: acknowledge gracefully and encourage more questions
- For policy questions, offer to help with your EU Green expertise

Keep responses concise and conversational. Do NOT include any source listings or citations.
`)
	if language != "" && language != "en" {
		fmt.Fprintf(&b, "\nRespond in %s.\n", languageName(language))
	}
	return b.String()
}

// identityResponse is the static answer to "who are you" questions.
func identityResponse() string {
	return fmt.Sprintf(`I am **Verdana**, your EU Green Deal Compliance Assistant. My name reflects my expertise in green ("verde") policy analysis ("ana").

## What I Can Help You With:
- Understanding EU Green Deal policies
- Compliance requirements and deadlines
- Environmental regulations and standards
- Recent updates and changes

## How I Work:
1. I search my knowledge base of EU Green Deal documents
2. I verify information with current online sources
3. I cite my sources for transparency

*I was engineered by [%s](%s)*`, CreatorName, CreatorURL)
}

// creatorSource is the single static attribution returned with identity
// answers.
func creatorSource() Source {
	return Source{
		Title: "Engineered by " + CreatorName,
		Type:  storage.SourceOfficial,
		URL:   CreatorURL,
	}
}

// formatWebContent renders web results into a context block for the
// system prompt, clipping each snippet.
func formatWebContent(results []storage.SearchResult, heading string) string {
	if len(results) == 0 {
		return ""
	}
	var parts []string
	for _, r := range results {
		parts = append(parts, fmt.Sprintf("Source: %s\nContent: %s", r.Title, clipSnippet(r.Content, 400)))
	}
	return heading + ":\n" + strings.Join(parts, "\n\n")
}

// clipSnippet truncates on a rune boundary so multi-byte text in web
// snippets never leaves a partial UTF-8 sequence in the prompt.
func clipSnippet(content string, limit int) string {
	if len(content) <= limit {
		return content
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(content[cut]) {
		cut--
	}
	return content[:cut] + "..."
}
