package agent

import (
	"context"
	"log/slog"
	"strings"

	"github.com/verdana-ai/verdana/internal/classifier"
	"github.com/verdana-ai/verdana/internal/retriever"
	"github.com/verdana-ai/verdana/internal/session"
	"github.com/verdana-ai/verdana/internal/storage"
)

const (
	// Apology is the uniform degraded response when completion fails.
	Apology = "I apologize, but I'm having trouble accessing the information right now. Please try again."

	// casualFallback is returned when the completion call fails on a
	// casual query. A canned greeting beats an apology there.
	casualFallback = "Hello! I'm here to help you with EU Green Deal policies and compliance questions. How can I assist you today?"

	kbSourceThreshold    = 2 // below this, web search runs in fill mode
	broadResultCount     = 5 // fill-mode web results requested
	verificationInPrompt = 2 // verification results injected into the prompt

	maxKBSources  = 3
	maxWebSources = 5

	completionWindow = 6 // prior turns carried into the completion

	answerMaxTokens = 1200
	casualMaxTokens = 200
	temperature     = 0.7
	maxConfidence   = 0.95
	floorConfidence = 0.3

	webSummaryTitle = "Web Search Summary"
)

// ContextRetriever is the knowledge-base capability the orchestrator
// depends on.
type ContextRetriever interface {
	RetrieveContext(ctx context.Context, query string, maxChunks, budget int) retriever.Context
}

// WebSearcher is the optional web enrichment capability.
type WebSearcher interface {
	Enabled() bool
	SearchVerification(ctx context.Context, query string) []storage.SearchResult
	SearchBroad(ctx context.Context, query string, maxResults int) []storage.SearchResult
	PolicyUpdates(ctx context.Context, policyName string) []storage.SearchResult
}

// Source is one attributed reference returned with a response.
type Source struct {
	Title      string             `json:"title"`
	Type       storage.SourceType `json:"type"`
	URL        string             `json:"url,omitempty"`
	Filename   string             `json:"filename,omitempty"`
	Similarity float64            `json:"similarity,omitempty"`
}

// Request is one user query addressed to the orchestrator.
type Request struct {
	Query     string
	SessionID string
	Language  string // ISO code hint, pinned on the session's first turn
}

// Response is the orchestrator's answer with attribution.
type Response struct {
	Text           string              `json:"response"`
	Sources        []Source            `json:"sources"`
	Confidence     float64             `json:"confidence"`
	Classification classifier.Category `json:"query_type"`
	KnowledgeUsed  int                 `json:"knowledge_used"`
	WebUsed        int                 `json:"web_research_used"`
	Language       string              `json:"language"`
	Verification   *VerificationReport `json:"verification,omitempty"`
}

// Orchestrator coordinates classification, retrieval, web search,
// completion and source assembly for one query at a time. Safe for
// concurrent use.
type Orchestrator struct {
	retriever     ContextRetriever
	web           WebSearcher
	sessions      session.Store
	completer     Completer
	maxChunks     int
	contextBudget int
	logger        *slog.Logger
}

// Params configures an Orchestrator. Web may be nil to disable web
// enrichment entirely.
type Params struct {
	Retriever     ContextRetriever
	Web           WebSearcher
	Sessions      session.Store
	Completer     Completer
	MaxChunks     int
	ContextBudget int
	Logger        *slog.Logger
}

func NewOrchestrator(p Params) *Orchestrator {
	if p.MaxChunks <= 0 {
		p.MaxChunks = 5
	}
	if p.ContextBudget <= 0 {
		p.ContextBudget = 2000
	}
	if p.Logger == nil {
		p.Logger = slog.Default()
	}
	return &Orchestrator{
		retriever:     p.Retriever,
		web:           p.Web,
		sessions:      p.Sessions,
		completer:     p.Completer,
		maxChunks:     p.MaxChunks,
		contextBudget: p.ContextBudget,
		logger:        p.Logger,
	}
}

// Ask runs the full pipeline for one query. It never returns an error:
// every failure mode degrades to a well-formed Response.
func (o *Orchestrator) Ask(ctx context.Context, req Request) Response {
	lang := o.pinLanguage(req.SessionID, req.Language)

	var history []session.Turn
	if req.SessionID != "" {
		history = o.sessions.LastN(req.SessionID, completionWindow)
	}

	result := classifier.Classify(req.Query, history)
	o.logger.Info("query classified",
		"category", result.Category,
		"follow_up", result.FollowUp,
		"session", req.SessionID)

	if req.SessionID != "" {
		o.sessions.Append(req.SessionID, session.Turn{Role: session.RoleUser, Content: req.Query})
	}

	var resp Response
	switch result.Category {
	case classifier.CategoryIdentity:
		resp = Response{
			Text:       identityResponse(),
			Sources:    []Source{creatorSource()},
			Confidence: 1.0,
		}
	case classifier.CategoryCasual:
		resp = o.answerCasual(ctx, req.Query, lang)
	default:
		resp = o.answerPolicy(ctx, req.Query, lang, history, result.FollowUp)
	}

	resp.Classification = result.Category
	resp.Language = lang
	if resp.Sources == nil {
		resp.Sources = []Source{}
	}

	if req.SessionID != "" && resp.Text != Apology {
		o.sessions.Append(req.SessionID, session.Turn{Role: session.RoleAssistant, Content: resp.Text})
	}
	return resp
}

// pinLanguage resolves the session language: the first hint wins for
// the whole session.
func (o *Orchestrator) pinLanguage(sessionID, hint string) string {
	if hint == "" {
		hint = "en"
	}
	if sessionID == "" {
		return hint
	}
	if pinned := o.sessions.Language(sessionID); pinned != "" {
		return pinned
	}
	o.sessions.SetLanguage(sessionID, hint)
	return hint
}

func (o *Orchestrator) answerCasual(ctx context.Context, query, lang string) Response {
	messages := []Message{
		{Role: "system", Content: casualPrompt(lang)},
		{Role: "user", Content: query},
	}
	text, err := o.completer.Complete(ctx, messages, casualMaxTokens, temperature)
	if err != nil {
		o.logger.Warn("casual completion failed", "error", err)
		text = casualFallback
	}
	return Response{Text: text, Confidence: floorConfidence}
}

func (o *Orchestrator) answerPolicy(ctx context.Context, query, lang string, history []session.Turn, followUp bool) Response {
	kctx := o.retriever.RetrieveContext(ctx, query, o.maxChunks, o.contextBudget)
	contextText := kctx.Text

	var webResults []storage.SearchResult
	var report *VerificationReport

	if o.web != nil && o.web.Enabled() {
		if len(kctx.Sources) < kbSourceThreshold {
			webResults = o.web.SearchBroad(ctx, query, broadResultCount)
			block := formatWebContent(filterSummary(webResults), "CURRENT INFORMATION from Web Sources")
			if contextText == "" {
				contextText = block
			} else if block != "" {
				contextText += "\n\n" + block
			}
		} else {
			webResults = o.web.SearchVerification(ctx, query)
			r := VerifyAgainstWeb(kctx.Sources, webResults)
			report = &r
			if len(webResults) > verificationInPrompt {
				webResults = webResults[:verificationInPrompt]
			}
			// Signs of recent amendments trigger a deeper update search
			// so the answer cites what actually changed.
			if r.Recommendation == RecommendCombineSources {
				webResults = append(webResults, o.web.PolicyUpdates(ctx, query)...)
			}
			if block := formatWebContent(filterSummary(webResults), "VERIFICATION INFORMATION from Current Sources"); block != "" {
				contextText += "\n\n" + block
			}
		}
	}

	messages := make([]Message, 0, len(history)+2)
	messages = append(messages, Message{
		Role:    "system",
		Content: policyPrompt(lang, contextText, len(history) == 0, followUp),
	})
	for _, turn := range history {
		messages = append(messages, Message{Role: string(turn.Role), Content: turn.Content})
	}
	messages = append(messages, Message{Role: "user", Content: query})

	text, err := o.completer.Complete(ctx, messages, answerMaxTokens, temperature)
	if err != nil {
		o.logger.Error("completion failed", "error", err)
		return Response{Text: Apology, Sources: []Source{}, Confidence: 0}
	}

	sources, kbCount, webCount := assembleSources(kctx.Sources, webResults)
	return Response{
		Text:          text,
		Sources:       sources,
		Confidence:    scoreConfidence(kbCount, webCount, contextText != ""),
		KnowledgeUsed: kbCount,
		WebUsed:       webCount,
		Verification:  report,
	}
}

// assembleSources builds the attributed source list: the canonical
// official reference first, then knowledge-base sources deduplicated by
// filename, then web sources deduplicated by URL. Returns the list and
// the kept knowledge-base and web counts.
func assembleSources(kb, web []storage.SearchResult) ([]Source, int, int) {
	sources := []Source{{
		Title: "European Green Deal - Official EU Documentation",
		Type:  storage.SourceOfficial,
		URL:   "https://commission.europa.eu/publications/delivering-european-green-deal_en",
	}}

	seenFiles := make(map[string]bool)
	kbCount := 0
	for _, r := range kb {
		key := r.Filename
		if key == "" {
			key = r.Title
		}
		if seenFiles[key] {
			continue
		}
		seenFiles[key] = true
		sources = append(sources, Source{
			Title:      r.Title,
			Type:       storage.SourceKnowledgeBase,
			URL:        r.URL,
			Filename:   r.Filename,
			Similarity: round2(r.Similarity),
		})
		kbCount++
		if kbCount >= maxKBSources {
			break
		}
	}

	seenURLs := make(map[string]bool)
	webCount := 0
	for _, r := range web {
		title := strings.TrimSpace(r.Title)
		url := strings.TrimSpace(r.URL)
		if title == "" || url == "" || title == webSummaryTitle {
			continue
		}
		if seenURLs[url] {
			continue
		}
		seenURLs[url] = true
		sources = append(sources, Source{Title: title, Type: r.Type, URL: url})
		webCount++
		if webCount >= maxWebSources {
			break
		}
	}

	return sources, kbCount, webCount
}

// scoreConfidence is monotonic in both source counts, each component
// capped, summed under a ceiling below 1.0. No context at all floors
// the score.
func scoreConfidence(kbCount, webCount int, hasContext bool) float64 {
	if !hasContext {
		return floorConfidence
	}
	kbScore := 0.4 + float64(kbCount)*0.15
	if kbScore > 0.7 {
		kbScore = 0.7
	}
	webScore := float64(webCount) * 0.1
	if webScore > 0.3 {
		webScore = 0.3
	}
	if total := kbScore + webScore; total < maxConfidence {
		return total
	}
	return maxConfidence
}

// filterSummary drops provider-synthesized summary entries, which are
// not citable and should not shadow real sources in the prompt.
func filterSummary(results []storage.SearchResult) []storage.SearchResult {
	kept := results[:0:0]
	for _, r := range results {
		if r.Title == webSummaryTitle {
			continue
		}
		kept = append(kept, r)
	}
	return kept
}

func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}
