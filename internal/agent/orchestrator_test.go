package agent

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdana-ai/verdana/internal/classifier"
	"github.com/verdana-ai/verdana/internal/retriever"
	"github.com/verdana-ai/verdana/internal/session"
	"github.com/verdana-ai/verdana/internal/storage"
)

type fakeRetriever struct {
	result retriever.Context
	calls  int
}

func (f *fakeRetriever) RetrieveContext(ctx context.Context, query string, maxChunks, budget int) retriever.Context {
	f.calls++
	return f.result
}

type fakeWeb struct {
	enabled      bool
	broad        []storage.SearchResult
	verification []storage.SearchResult
	updates      []storage.SearchResult
	broadCalls   int
	verifyCalls  int
	updateCalls  int
}

func (f *fakeWeb) Enabled() bool { return f.enabled }

func (f *fakeWeb) SearchVerification(ctx context.Context, query string) []storage.SearchResult {
	f.verifyCalls++
	return f.verification
}

func (f *fakeWeb) SearchBroad(ctx context.Context, query string, maxResults int) []storage.SearchResult {
	f.broadCalls++
	return f.broad
}

func (f *fakeWeb) PolicyUpdates(ctx context.Context, policyName string) []storage.SearchResult {
	f.updateCalls++
	return f.updates
}

type fakeCompleter struct {
	reply        string
	err          error
	lastMessages []Message
	calls        int
}

func (f *fakeCompleter) Complete(ctx context.Context, messages []Message, maxTokens int, temperature float64) (string, error) {
	f.calls++
	f.lastMessages = messages
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func kbResult(filename string, similarity float64) storage.SearchResult {
	return storage.SearchResult{
		Title:      filename,
		Content:    "chunk content from " + filename,
		Similarity: similarity,
		Type:       storage.SourceKnowledgeBase,
		Filename:   filename,
	}
}

func webResult(title, url string) storage.SearchResult {
	return storage.SearchResult{
		Title:   title,
		Content: "web content for " + title,
		Type:    storage.SourceWebVerification,
		URL:     url,
	}
}

func newTestOrchestrator(ret *fakeRetriever, web *fakeWeb, comp *fakeCompleter) *Orchestrator {
	var searcher WebSearcher
	if web != nil {
		searcher = web
	}
	return NewOrchestrator(Params{
		Retriever: ret,
		Web:       searcher,
		Sessions:  session.NewMemoryStore(0),
		Completer: comp,
	})
}

func TestCasualQuerySkipsRetrievalAndWeb(t *testing.T) {
	ret := &fakeRetriever{}
	web := &fakeWeb{enabled: true}
	comp := &fakeCompleter{reply: "Hi! How can I help?"}
	o := newTestOrchestrator(ret, web, comp)

	resp := o.Ask(context.Background(), Request{Query: "hello", SessionID: "s1"})

	assert.Equal(t, classifier.CategoryCasual, resp.Classification)
	assert.Equal(t, "Hi! How can I help?", resp.Text)
	assert.Empty(t, resp.Sources)
	assert.Zero(t, ret.calls)
	assert.Zero(t, web.broadCalls)
	assert.Zero(t, web.verifyCalls)
}

func TestCasualCompletionFailureFallsBackToGreeting(t *testing.T) {
	o := newTestOrchestrator(&fakeRetriever{}, nil, &fakeCompleter{err: errors.New("api down")})

	resp := o.Ask(context.Background(), Request{Query: "thanks"})
	assert.Equal(t, casualFallback, resp.Text)
	assert.Empty(t, resp.Sources)
}

func TestIdentityQueryIsStatic(t *testing.T) {
	comp := &fakeCompleter{reply: "unused"}
	o := newTestOrchestrator(&fakeRetriever{}, nil, comp)

	resp := o.Ask(context.Background(), Request{Query: "who are you?"})

	assert.Equal(t, classifier.CategoryIdentity, resp.Classification)
	assert.Contains(t, resp.Text, "Verdana")
	assert.Contains(t, resp.Text, CreatorName)
	require.Len(t, resp.Sources, 1)
	assert.Equal(t, storage.SourceOfficial, resp.Sources[0].Type)
	assert.Zero(t, comp.calls, "identity answers never call the model")
}

func TestPolicyQueryWithSufficientKBRunsVerification(t *testing.T) {
	ret := &fakeRetriever{result: retriever.Context{
		Text:        "retrieved context",
		Sources:     []storage.SearchResult{kbResult("eu_climate_law.pdf", 0.8), kbResult("cbam_guide.pdf", 0.7)},
		ChunkCount:  2,
		TotalTokens: 100,
	}}
	web := &fakeWeb{enabled: true, verification: []storage.SearchResult{
		webResult("Commission news", "https://ec.europa.eu/news"),
	}}
	comp := &fakeCompleter{reply: "Here is the answer."}
	o := newTestOrchestrator(ret, web, comp)

	resp := o.Ask(context.Background(), Request{Query: "What is CBAM?", SessionID: "s1"})

	assert.Equal(t, 1, web.verifyCalls)
	assert.Zero(t, web.broadCalls)
	require.NotNil(t, resp.Verification)
	assert.Equal(t, 2, resp.Verification.KBSourceCount)

	// Official reference leads, then knowledge base, then web.
	require.GreaterOrEqual(t, len(resp.Sources), 4)
	assert.Equal(t, storage.SourceOfficial, resp.Sources[0].Type)
	assert.Equal(t, storage.SourceKnowledgeBase, resp.Sources[1].Type)
	assert.Equal(t, storage.SourceKnowledgeBase, resp.Sources[2].Type)
	assert.Equal(t, "Commission news", resp.Sources[3].Title)

	assert.Equal(t, 2, resp.KnowledgeUsed)
	assert.Equal(t, 1, resp.WebUsed)
	assert.Zero(t, web.updateCalls, "aligned sources need no update search")
}

func TestVerificationUpdatesTriggerPolicyUpdateSearch(t *testing.T) {
	ret := &fakeRetriever{result: retriever.Context{
		Text:        "retrieved context",
		Sources:     []storage.SearchResult{kbResult("eu_climate_law.pdf", 0.8), kbResult("cbam_guide.pdf", 0.7)},
		ChunkCount:  2,
		TotalTokens: 100,
	}}
	recent := webResult("Commission news", "https://ec.europa.eu/news")
	recent.Content = "The directive was amended with stricter targets."
	web := &fakeWeb{
		enabled:      true,
		verification: []storage.SearchResult{recent},
		updates: []storage.SearchResult{
			{Title: "Amendment details", URL: "https://eur-lex.europa.eu/amend", Content: "what changed", Type: storage.SourceWebSearch},
		},
	}
	comp := &fakeCompleter{reply: "Here is the answer."}
	o := newTestOrchestrator(ret, web, comp)

	resp := o.Ask(context.Background(), Request{Query: "What is CBAM?"})

	require.NotNil(t, resp.Verification)
	assert.Equal(t, RecommendCombineSources, resp.Verification.Recommendation)
	assert.Equal(t, 1, web.updateCalls)

	// Update results join the cited web sources.
	titles := make([]string, 0, len(resp.Sources))
	for _, s := range resp.Sources {
		titles = append(titles, s.Title)
	}
	assert.Contains(t, titles, "Amendment details")
	assert.Equal(t, 2, resp.WebUsed)
}

func TestPolicyQueryWithEmptyKBFillsFromWeb(t *testing.T) {
	ret := &fakeRetriever{result: retriever.Context{}}
	web := &fakeWeb{enabled: true, broad: []storage.SearchResult{
		{Title: "EU portal", URL: "https://europa.eu/page", Content: "web info", Type: storage.SourceWebSearch},
	}}
	comp := &fakeCompleter{reply: "Web-grounded answer."}
	o := newTestOrchestrator(ret, web, comp)

	resp := o.Ask(context.Background(), Request{Query: "What is CBAM?"})

	assert.Equal(t, 1, web.broadCalls)
	assert.Zero(t, web.verifyCalls)
	assert.Nil(t, resp.Verification)

	// No knowledge_base entries: official reference plus web only.
	for _, src := range resp.Sources {
		assert.NotEqual(t, storage.SourceKnowledgeBase, src.Type)
	}
	assert.Equal(t, storage.SourceOfficial, resp.Sources[0].Type)
	assert.Zero(t, resp.KnowledgeUsed)
	assert.Equal(t, 1, resp.WebUsed)

	// The web block is the whole context, so the prompt carries it.
	systemMsg := comp.lastMessages[0]
	assert.Contains(t, systemMsg.Content, "web info")
}

func TestSourceAssemblyDedupesAndCaps(t *testing.T) {
	kb := []storage.SearchResult{
		kbResult("a.pdf", 0.9), kbResult("a.pdf", 0.85), kbResult("b.pdf", 0.8),
		kbResult("c.pdf", 0.7), kbResult("d.pdf", 0.6),
	}
	web := []storage.SearchResult{
		webResult("One", "https://e.example/1"),
		webResult("One again", "https://e.example/1"),
		{Title: webSummaryTitle, URL: "https://e.example/s", Type: storage.SourceWebSearch},
		{Title: "No URL", Type: storage.SourceWebSearch},
		webResult("Two", "https://e.example/2"),
		webResult("Three", "https://e.example/3"),
		webResult("Four", "https://e.example/4"),
		webResult("Five", "https://e.example/5"),
		webResult("Six", "https://e.example/6"),
	}

	sources, kbCount, webCount := assembleSources(kb, web)

	assert.Equal(t, maxKBSources, kbCount, "kb capped at 3 unique filenames")
	assert.Equal(t, maxWebSources, webCount, "web capped at 5 unique URLs")
	assert.Len(t, sources, 1+kbCount+webCount)

	seen := make(map[string]bool)
	for _, src := range sources[1:] {
		key := src.Filename + "|" + src.URL
		assert.False(t, seen[key], "duplicate source %q", key)
		seen[key] = true
		assert.NotEqual(t, webSummaryTitle, src.Title)
	}
}

func TestConfidenceScoring(t *testing.T) {
	tests := []struct {
		kb, web    int
		hasContext bool
		want       float64
	}{
		{0, 0, false, 0.3},
		{0, 2, true, 0.6},  // 0.4 base + 0.2 web
		{1, 0, true, 0.55}, // 0.4 + 0.15
		{2, 2, true, 0.9},  // 0.7 + 0.2
		{3, 5, true, 0.95}, // capped components, ceiling applies
		{10, 10, true, 0.95},
	}
	for _, tt := range tests {
		got := scoreConfidence(tt.kb, tt.web, tt.hasContext)
		assert.InDelta(t, tt.want, got, 1e-9, "kb=%d web=%d", tt.kb, tt.web)
	}
}

func TestCompletionFailureReturnsApology(t *testing.T) {
	ret := &fakeRetriever{result: retriever.Context{
		Text:    "context",
		Sources: []storage.SearchResult{kbResult("a.pdf", 0.9), kbResult("b.pdf", 0.8)},
	}}
	comp := &fakeCompleter{err: errors.New("model unavailable")}
	sessions := session.NewMemoryStore(0)
	o := NewOrchestrator(Params{
		Retriever: ret,
		Sessions:  sessions,
		Completer: comp,
	})

	resp := o.Ask(context.Background(), Request{Query: "What is CBAM?", SessionID: "s1"})

	assert.Equal(t, Apology, resp.Text)
	assert.Empty(t, resp.Sources)
	assert.Zero(t, resp.Confidence)

	// The failed answer is not recorded as an assistant turn.
	turns := sessions.LastN("s1", 10)
	require.Len(t, turns, 1)
	assert.Equal(t, session.RoleUser, turns[0].Role)
}

func TestConversationHistoryFlowsIntoPrompt(t *testing.T) {
	ret := &fakeRetriever{result: retriever.Context{Text: "ctx", Sources: []storage.SearchResult{kbResult("a.pdf", 0.9)}}}
	comp := &fakeCompleter{reply: "answer"}
	o := newTestOrchestrator(ret, nil, comp)

	o.Ask(context.Background(), Request{Query: "What is the biodiversity strategy?", SessionID: "s1"})
	o.Ask(context.Background(), Request{Query: "What about emissions targets?", SessionID: "s1"})

	// Second call: system + 2 prior turns + current user turn.
	require.Len(t, comp.lastMessages, 4)
	assert.Equal(t, "system", comp.lastMessages[0].Role)
	assert.Equal(t, "user", comp.lastMessages[1].Role)
	assert.Equal(t, "What is the biodiversity strategy?", comp.lastMessages[1].Content)
	assert.Equal(t, "assistant", comp.lastMessages[2].Role)
	assert.Equal(t, "What about emissions targets?", comp.lastMessages[3].Content)

	// Continuing conversations do not re-introduce the assistant.
	assert.Contains(t, comp.lastMessages[0].Content, "continuing conversation")
}

func TestFollowUpQueryKeepsPolicyPipeline(t *testing.T) {
	ret := &fakeRetriever{result: retriever.Context{Text: "ctx", Sources: []storage.SearchResult{kbResult("a.pdf", 0.9)}}}
	comp := &fakeCompleter{reply: "The strategy also includes..."}
	o := newTestOrchestrator(ret, nil, comp)

	o.Ask(context.Background(), Request{Query: "Explain the biodiversity strategy", SessionID: "s1"})
	resp := o.Ask(context.Background(), Request{Query: "tell me more", SessionID: "s1"})

	assert.Equal(t, classifier.CategoryPolicy, resp.Classification)
	assert.Equal(t, 2, ret.calls, "follow-ups retrieve like any policy query")
}

func TestLanguagePinnedToFirstTurn(t *testing.T) {
	comp := &fakeCompleter{reply: "raspuns"}
	o := newTestOrchestrator(&fakeRetriever{result: retriever.Context{Text: "ctx"}}, nil, comp)

	first := o.Ask(context.Background(), Request{Query: "Ce este CBAM si cum functioneaza?", SessionID: "s1", Language: "ro"})
	second := o.Ask(context.Background(), Request{Query: "What is CBAM exactly then?", SessionID: "s1", Language: "en"})

	assert.Equal(t, "ro", first.Language)
	assert.Equal(t, "ro", second.Language, "later hints cannot override the pinned language")
}

func TestHistoryWindowIsBounded(t *testing.T) {
	ret := &fakeRetriever{result: retriever.Context{Text: "ctx"}}
	comp := &fakeCompleter{reply: "answer"}
	o := newTestOrchestrator(ret, nil, comp)

	for i := 0; i < 12; i++ {
		o.Ask(context.Background(), Request{
			Query:     fmt.Sprintf("Question %d about the emissions trading system", i),
			SessionID: "s1",
		})
	}

	// system + at most completionWindow prior turns + current user turn.
	assert.LessOrEqual(t, len(comp.lastMessages), completionWindow+2)
	for _, m := range comp.lastMessages[1:] {
		assert.Contains(t, []string{"user", "assistant"}, m.Role)
	}
}
