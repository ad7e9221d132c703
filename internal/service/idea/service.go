package idea

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"dassyor/internal/mailer"
	"dassyor/internal/model"
	"dassyor/internal/mq"
	"dassyor/internal/search"
)

// SearchClient is the web search dependency.
type SearchClient interface {
	Search(ctx context.Context, query string) ([]search.Result, error)
}

// LLMClient is the language model dependency.
type LLMClient interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// TaskStore persists pipeline outcomes.
type TaskStore interface {
	MarkSuccess(ctx context.Context, taskID, analysis string, posts []*model.RelevantPost) error
	MarkFailure(ctx context.Context, taskID string) error
}

// Service runs the idea validation pipeline for one task: craft a search
// term, find conversations, analyze them, persist and email the results.
type Service struct {
	tasks    TaskStore
	searcher SearchClient
	llm      LLMClient
	mail     mailer.Sender
	appName  string
	logger   *zap.Logger
}

func NewService(tasks TaskStore, searcher SearchClient, llm LLMClient, mail mailer.Sender, appName string, logger *zap.Logger) *Service {
	return &Service{
		tasks:    tasks,
		searcher: searcher,
		llm:      llm,
		mail:     mail,
		appName:  appName,
		logger:   logger,
	}
}

const termSystemPrompt = `You craft concise web search queries. Given a startup idea,
produce ONE search query that would surface online discussions of the
problem the idea solves. Answer with the query only, no quotes.`

const analysisSystemPrompt = `You are a startup idea validation analyst. Given an idea and
excerpts of online discussions, write a short plain-text assessment of
demand signals: who is asking for this, how often, and how strong the
pain appears. Be concrete and cite the discussions by title.`

// Process executes the full pipeline. Errors bubble up for the consumer's
// retry accounting; terminal bookkeeping happens in the dead letter hook.
func (s *Service) Process(ctx context.Context, payload mq.SearchRequestedPayload) error {
	s.logger.Info("processing search task", zap.String("task_id", payload.TaskID))

	term, err := s.llm.Complete(ctx, termSystemPrompt, buildTermPrompt(payload))
	if err != nil {
		return fmt.Errorf("generate search term: %w", err)
	}
	term = strings.TrimSpace(term)
	if term == "" {
		term = payload.Query
	}

	results, err := s.searcher.Search(ctx, term)
	if err != nil {
		return fmt.Errorf("web search: %w", err)
	}

	analysis, err := s.llm.Complete(ctx, analysisSystemPrompt, buildAnalysisPrompt(payload, results))
	if err != nil {
		return fmt.Errorf("analyze results: %w", err)
	}

	posts := make([]*model.RelevantPost, 0, len(results))
	items := make([]mailer.ListItem, 0, len(results))
	for _, r := range results {
		posts = append(posts, &model.RelevantPost{TaskID: payload.TaskID, Title: r.Title, Link: r.Link})
		items = append(items, mailer.ListItem{Text: r.Title, URL: r.Link})
	}

	if err := s.tasks.MarkSuccess(ctx, payload.TaskID, analysis, posts); err != nil {
		return fmt.Errorf("persist results: %w", err)
	}

	body := mailer.IdeaResultsEmail(s.appName, payload.Query, analysis, items)
	if err := s.mail.Send(payload.Email, fmt.Sprintf("Your %s idea validation results", s.appName), body); err != nil {
		// Results are stored; the email is best-effort.
		s.logger.Error("results email failed",
			zap.String("task_id", payload.TaskID),
			zap.Error(err))
	}

	s.logger.Info("search task completed",
		zap.String("task_id", payload.TaskID),
		zap.Int("posts", len(posts)))
	return nil
}

// MarkFailed settles a task that exhausted its retries.
func (s *Service) MarkFailed(ctx context.Context, taskID string) {
	if err := s.tasks.MarkFailure(ctx, taskID); err != nil {
		s.logger.Error("failed to mark task failure",
			zap.String("task_id", taskID),
			zap.Error(err))
	}
}

func buildTermPrompt(p mq.SearchRequestedPayload) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Idea: %s\n", p.Query)
	if p.ProblemStatement != "" {
		fmt.Fprintf(&b, "Problem: %s\n", p.ProblemStatement)
	}
	if p.TargetAudience != "" {
		fmt.Fprintf(&b, "Audience: %s\n", p.TargetAudience)
	}
	return b.String()
}

func buildAnalysisPrompt(p mq.SearchRequestedPayload, results []search.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Idea: %s\n", p.Query)
	if p.ProblemStatement != "" {
		fmt.Fprintf(&b, "Problem: %s\n", p.ProblemStatement)
	}
	if p.TargetAudience != "" {
		fmt.Fprintf(&b, "Audience: %s\n", p.TargetAudience)
	}
	if len(results) == 0 {
		b.WriteString("\nNo discussions were found. Say so and suggest how to validate differently.\n")
		return b.String()
	}

	b.WriteString("\nDiscussions:\n")
	for i, r := range results {
		fmt.Fprintf(&b, "%d. %s\n%s\n%s\n\n", i+1, r.Title, r.Link, r.Snippet)
	}
	return b.String()
}
