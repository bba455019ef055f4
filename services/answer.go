package services

import (
	"context"
	"fmt"
	"strings"

	"findocbot/internal/logger"
	"findocbot/internal/telemetry"
	"findocbot/models"
	"findocbot/utils"
)

const systemInstruction = "You are an assistant for financial documents.\n" +
	"Use only the provided context and chat history.\n" +
	"If context is insufficient, say so explicitly.\n\n"

// AskResult is the generated answer with the chunks it was grounded on.
type AskResult struct {
	Answer  string
	Sources []SearchResult
}

// AnswerService answers questions from retrieved chunks and the recent
// history of the session.
type AnswerService struct {
	provider        ModelProvider
	search          *SearchService
	history         HistoryRepository
	clock           utils.Clock
	ids             utils.IDGenerator
	maxHistoryPairs int
	metrics         *telemetry.Metrics
}

type AnswerServiceDeps struct {
	Provider        ModelProvider
	Search          *SearchService
	History         HistoryRepository
	Clock           utils.Clock
	IDs             utils.IDGenerator
	MaxHistoryPairs int
	Metrics         *telemetry.Metrics
}

func NewAnswerService(deps AnswerServiceDeps) *AnswerService {
	if deps.Clock == nil {
		deps.Clock = utils.SystemClock{}
	}
	if deps.IDs == nil {
		deps.IDs = utils.UUIDGenerator{}
	}
	return &AnswerService{
		provider:        deps.Provider,
		search:          deps.Search,
		history:         deps.History,
		clock:           deps.Clock,
		ids:             deps.IDs,
		maxHistoryPairs: deps.MaxHistoryPairs,
		metrics:         deps.Metrics,
	}
}

// Execute retrieves context, builds the prompt and records the new turn. No
// turn is stored when retrieval or generation fails.
func (s *AnswerService) Execute(ctx context.Context, sessionID, question string, topK int) (*AskResult, error) {
	clean := strings.TrimSpace(question)
	if clean == "" {
		return nil, ErrInvalidQuery
	}

	sources, err := s.search.Execute(ctx, clean, topK)
	if err != nil {
		s.metrics.RecordAsk(false)
		return nil, err
	}
	recent, err := s.history.ListRecent(ctx, sessionID, s.maxHistoryPairs)
	if err != nil {
		s.metrics.RecordAsk(false)
		return nil, err
	}

	prompt := BuildPrompt(clean, sources, recent)
	answer, err := s.provider.Generate(ctx, prompt)
	if err != nil {
		s.metrics.RecordAsk(false)
		return nil, err
	}
	answer = strings.TrimSpace(answer)

	turn := models.ChatTurn{
		ID:        s.ids.NewID(),
		SessionID: sessionID,
		Question:  clean,
		Answer:    answer,
		CreatedAt: s.clock.Now(),
	}
	if err := s.history.AddTurn(ctx, turn); err != nil {
		s.metrics.RecordAsk(false)
		return nil, err
	}

	s.metrics.RecordAsk(true)
	logger.Debug("Answered question", "session_id", sessionID, "sources", len(sources), "history_turns", len(recent))
	return &AskResult{Answer: answer, Sources: sources}, nil
}

// BuildPrompt assembles the grounded prompt: instructions, chat history,
// scored context and the question, in that order.
func BuildPrompt(question string, sources []SearchResult, recent []models.ChatTurn) string {
	history := make([]string, len(recent))
	for i, t := range recent {
		history[i] = fmt.Sprintf("Q: %s\nA: %s", t.Question, t.Answer)
	}
	historyText := strings.Join(history, "\n")
	if historyText == "" {
		historyText = "No prior turns."
	}

	chunks := make([]string, len(sources))
	for i, src := range sources {
		chunks[i] = fmt.Sprintf("[score=%.4f] %s", src.Score, src.Text)
	}
	contextText := strings.Join(chunks, "\n\n")
	if contextText == "" {
		contextText = "No relevant chunks found."
	}

	var sb strings.Builder
	sb.WriteString(systemInstruction)
	sb.WriteString("Chat history:\n")
	sb.WriteString(historyText)
	sb.WriteString("\n\nContext:\n")
	sb.WriteString(contextText)
	sb.WriteString("\n\nQuestion: ")
	sb.WriteString(question)
	sb.WriteString("\nAnswer:")
	return sb.String()
}
