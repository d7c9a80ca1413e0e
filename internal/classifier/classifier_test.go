package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/verdana-ai/verdana/internal/session"
)

func TestClassifyCategories(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  Category
	}{
		{"greeting", "hello", CategoryCasual},
		{"greeting with punctuationless phrase", "how are you today", CategoryCasual},
		{"thanks", "thanks", CategoryCasual},
		{"identity", "who are you?", CategoryIdentity},
		{"identity creator", "Who created you and why", CategoryIdentity},
		{"named instrument", "What is CBAM?", CategoryPolicy},
		{"policy vocabulary", "explain the emissions trading system", CategoryPolicy},
		{"generic policy term", "what does the directive say", CategoryPolicy},
		{"long substantive fallback", "what should my company prepare for next reporting year", CategoryPolicy},
		{"short unknown fallback", "what now", CategoryCasual},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.query, nil)
			assert.Equal(t, tt.want, got.Category)
		})
	}
}

func TestClassifyFollowUp(t *testing.T) {
	history := []session.Turn{
		{Role: session.RoleUser, Content: "What is the biodiversity strategy?"},
		{Role: session.RoleAssistant, Content: "The Biodiversity Strategy for 2030 aims to put Europe's biodiversity on a path to recovery, including protected areas and restoration targets."},
	}

	got := Classify("tell me more", history)
	assert.Equal(t, CategoryPolicy, got.Category)
	assert.True(t, got.FollowUp)
}

func TestClassifyFollowUpNeedsTopicContext(t *testing.T) {
	// Same continuation phrase with no in-domain history stays casual:
	// there is nothing to follow up on.
	got := Classify("tell me more", nil)
	assert.Equal(t, CategoryCasual, got.Category)
	assert.False(t, got.FollowUp)

	// A user turn mentioning a topic is not enough; only assistant turns
	// establish the thread.
	history := []session.Turn{
		{Role: session.RoleUser, Content: "I read about the green deal yesterday"},
	}
	got = Classify("tell me more", history)
	assert.Equal(t, CategoryCasual, got.Category)
}

func TestClassifyFollowUpWindowExpires(t *testing.T) {
	history := []session.Turn{
		{Role: session.RoleAssistant, Content: "The circular economy action plan covers product design and waste."},
		{Role: session.RoleUser, Content: "ok"},
		{Role: session.RoleAssistant, Content: "Anything else?"},
		{Role: session.RoleUser, Content: "what was the weather like"},
		{Role: session.RoleAssistant, Content: "I focus on policy questions."},
		{Role: session.RoleUser, Content: "ok"},
	}

	// The policy turn fell outside the scanned window; the continuation
	// phrase no longer binds to it.
	got := Classify("tell me more", history)
	assert.Equal(t, CategoryCasual, got.Category)
}

func TestClassifyIsDeterministic(t *testing.T) {
	for i := 0; i < 10; i++ {
		got := Classify("What is CBAM?", nil)
		assert.Equal(t, CategoryPolicy, got.Category)
	}
}

func TestClassifyIdentityBeatsPolicyVocabulary(t *testing.T) {
	got := Classify("who are you and what do you know about climate", nil)
	assert.Equal(t, CategoryIdentity, got.Category)
}
