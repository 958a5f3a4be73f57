package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"go.uber.org/zap"

	"github.com/harwoodm/atheneum/internal/ingest"
)

const defaultModel = "gpt-4o-mini"

// Config holds the OpenAI classifier settings.
type Config struct {
	APIKey     string
	Model      string
	BaseURL    string        // optional (tests)
	Timeout    time.Duration // per-request timeout
	HTTPClient *http.Client  // optional (tests)
}

// OpenAIClassifier implements ingest.Classifier using the official OpenAI SDK.
type OpenAIClassifier struct {
	client openai.Client
	model  string
	logger *zap.Logger
}

// NewOpenAIClassifier creates a classifier backed by the chat completions API.
func NewOpenAIClassifier(cfg Config, logger *zap.Logger) *OpenAIClassifier {
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithRequestTimeout(cfg.Timeout),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}
	return &OpenAIClassifier{
		client: openai.NewClient(opts...),
		model:  cfg.Model,
		logger: logger,
	}
}

// Classify asks the model for 1-3 taxonomy genres plus an optional subgenre.
// Any label outside the taxonomy is discarded; zero surviving labels is a
// classification failure.
func (c *OpenAIClassifier) Classify(ctx context.Context, book ingest.BookMetadata) (*ingest.GenreClassification, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt()),
			openai.UserMessage(userPrompt(book)),
		},
		Temperature: openai.Float(0),
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("chat completion returned no choices")
	}
	classification, err := parseClassification(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("book classified",
		zap.String("identifier", book.Identifier),
		zap.Strings("genres", classification.Genres),
		zap.String("subgenre", classification.Subgenre),
	)
	return classification, nil
}

func systemPrompt() string {
	return "You are a librarian classifying public-domain books. " +
		"Respond with a single JSON object of the form " +
		`{"genres": ["..."], "subgenre": "..."} and nothing else. ` +
		"Choose 1 to 3 genres, in order of relevance, strictly from this list: " +
		strings.Join(PrimaryGenres, ", ") + ". " +
		`The subgenre is free text; use "" when none applies.`
}

func userPrompt(book ingest.BookMetadata) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s\n", book.Title)
	if book.Creator != "" {
		fmt.Fprintf(&b, "Author: %s\n", book.Creator)
	}
	if book.Date != "" {
		fmt.Fprintf(&b, "Date: %s\n", book.Date)
	}
	if book.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", book.Description)
	}
	return b.String()
}

// parseClassification extracts and validates the model's JSON answer. Models
// occasionally wrap JSON in code fences or prose, so everything outside the
// outermost braces is ignored.
func parseClassification(content string) (*ingest.GenreClassification, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end < start {
		return nil, fmt.Errorf("no JSON object in model output")
	}
	var raw struct {
		Genres   []string `json:"genres"`
		Subgenre string   `json:"subgenre"`
	}
	if err := json.Unmarshal([]byte(content[start:end+1]), &raw); err != nil {
		return nil, fmt.Errorf("decode model output: %w", err)
	}
	genres := ValidGenres(raw.Genres)
	if len(genres) == 0 {
		return nil, fmt.Errorf("model output contained no valid taxonomy genres")
	}
	return &ingest.GenreClassification{
		Genres:   genres,
		Subgenre: strings.TrimSpace(raw.Subgenre),
	}, nil
}
