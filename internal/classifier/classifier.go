// Package classifier decides how an incoming query should be handled:
// as an identity question, casual conversation, or a policy question
// (including short follow-ups that continue a prior policy topic).
//
// This is a deliberately simple, ordered keyword gate rather than a
// semantic classifier. It always returns a best-guess category and never
// fails; misclassification of ambiguous queries is an accepted
// limitation.
package classifier

import (
	"regexp"
	"strings"

	"github.com/verdana-ai/verdana/internal/session"
)

// Category is the classification outcome. Exactly four cases exist;
// follow-ups resolve to CategoryPolicy with FollowUp set.
type Category string

const (
	CategoryIdentity Category = "identity"
	CategoryCasual   Category = "casual"
	CategoryPolicy   Category = "policy"
)

// Result carries the category plus whether it was reached through
// follow-up context, so the composer knows the topic is implicit.
type Result struct {
	Category Category
	FollowUp bool
}

// identityPhrases match questions about the assistant itself.
var identityPhrases = []string{
	"who are you", "what are you", "tell me about yourself",
	"your identity", "your name", "who created you",
	"who made you", "who built you", "who engineered you",
	"your creator", "your developer", "about verdana",
}

// casualPatterns match greetings, closings and acknowledgements.
// Anchored: they only apply to very short utterances.
var casualPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^hi$`), regexp.MustCompile(`^hello$`),
	regexp.MustCompile(`^hey$`), regexp.MustCompile(`^good morning$`),
	regexp.MustCompile(`^good afternoon$`), regexp.MustCompile(`^good evening$`),
	regexp.MustCompile(`^how are you`), regexp.MustCompile(`^what's up`),
	regexp.MustCompile(`^thanks?$`), regexp.MustCompile(`^thank you$`),
	regexp.MustCompile(`^ok$`), regexp.MustCompile(`^okay$`),
	regexp.MustCompile(`^yes$`), regexp.MustCompile(`^no$`),
	regexp.MustCompile(`^bye$`), regexp.MustCompile(`^goodbye$`),
	regexp.MustCompile(`^see you`), regexp.MustCompile(`^nice to meet you`),
	regexp.MustCompile(`^pleased to meet you`),
}

// topicKeywords are terms in recent assistant turns that establish an
// in-domain conversation context for follow-up detection.
var topicKeywords = []string{
	"green deal", "biodiversity", "climate", "emission", "cbam",
	"directive", "regulation", "sustainability", "farm to fork",
	"circular economy", "renewable", "carbon", "protected areas",
	"restoration", "species", "pollinator", "strategy",
}

// followUpPhrases mark short queries that continue the prior topic.
var followUpPhrases = []string{
	"more information", "tell me more", "elaborate", "explain further",
	"details", "continue", "expand on", "more details", "give me more",
	"more about", "additional information", "further details",
	"about my previous", "about the previous", "more please",
}

// policyKeywords is the curated in-domain vocabulary: policy names,
// regulation acronyms and environmental terms.
var policyKeywords = []string{
	"green deal", "eu green", "european green", "climate law", "fit for 55",
	"taxonomy", "cbam", "carbon border", "farm to fork", "biodiversity",
	"circular economy", "emissions trading", "renewable energy",
	"energy efficiency", "climate neutral", "net zero", "paris agreement",
	"climate change", "sustainability", "environmental policy",
	"carbon footprint", "emission", "environment", "climate", "sustainable",
	"carbon", "greenhouse gas", "pollution", "ecosystem", "deforestation",
	"reforestation", "organic farming", "pesticide", "soil health",
	"water quality", "air quality", "waste management", "recycling",
	"csrd", "esg", "eu policy", "european policy", "ets", "lulucf",
}

// genericPolicyTerms catch policy-adjacent queries that name no specific
// instrument.
var genericPolicyTerms = []string{
	"policy", "regulation", "directive", "law", "compliance", "requirement",
}

// substantiveWordCount is the length fallback: queries longer than this
// default to policy, shorter ones to casual.
const substantiveWordCount = 5

// recentTurnWindow is how many trailing turns are scanned for follow-up
// context.
const recentTurnWindow = 4

// Classify applies the ordered decision rules to a query and its recent
// conversation turns. Deterministic: identical input yields identical
// output.
func Classify(query string, history []session.Turn) Result {
	q := strings.ToLower(strings.TrimSpace(query))

	// 1. Identity questions about the assistant.
	for _, phrase := range identityPhrases {
		if strings.Contains(q, phrase) {
			return Result{Category: CategoryIdentity}
		}
	}

	// 2. Follow-up continuing an in-domain thread: recent assistant
	// turns mention policy topics and the query is a continuation
	// phrase. The topic keyword need not appear in the query itself.
	if hasTopicContext(history) && matchesAny(q, followUpPhrases) {
		return Result{Category: CategoryPolicy, FollowUp: true}
	}

	// 3. Explicit in-domain vocabulary.
	if matchesAny(q, policyKeywords) {
		return Result{Category: CategoryPolicy}
	}

	// 4. Short greetings and acknowledgements.
	if len(strings.Fields(q)) <= 3 {
		for _, pattern := range casualPatterns {
			if pattern.MatchString(q) {
				return Result{Category: CategoryCasual}
			}
		}
	}

	// 5. Policy-adjacent generic terms.
	if matchesAny(q, genericPolicyTerms) {
		return Result{Category: CategoryPolicy}
	}

	// 6. Length fallback: substantive queries are assumed in-domain.
	if len(strings.Fields(q)) > substantiveWordCount {
		return Result{Category: CategoryPolicy}
	}
	return Result{Category: CategoryCasual}
}

// hasTopicContext reports whether any recent assistant turn mentions an
// in-domain topic.
func hasTopicContext(history []session.Turn) bool {
	start := len(history) - recentTurnWindow
	if start < 0 {
		start = 0
	}
	for _, turn := range history[start:] {
		if turn.Role != session.RoleAssistant {
			continue
		}
		content := strings.ToLower(turn.Content)
		for _, keyword := range topicKeywords {
			if strings.Contains(content, keyword) {
				return true
			}
		}
	}
	return false
}

func matchesAny(q string, phrases []string) bool {
	for _, phrase := range phrases {
		if strings.Contains(q, phrase) {
			return true
		}
	}
	return false
}
