// Package ai turns natural-language prompts into structured dataset queries
// and explains queries and failures back to users.
package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"queryjam/internal/config"
	"queryjam/internal/models"
	"queryjam/internal/query"

	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"
)

// ErrProviderNotConfigured marks requests for a provider the config does not
// carry an API key for.
var ErrProviderNotConfigured = errors.New("ai provider not configured")

// Service holds one chat model and generates query suggestions with it.
type Service struct {
	chatModel model.BaseChatModel
	provider  string
	modelName string
}

// NewService builds a chat model for the named provider from config. The
// provider entry must carry an API key.
func NewService(ctx context.Context, cfg *config.Config, provider string) (*Service, error) {
	provCfg, ok := cfg.Providers[provider]
	if !ok || provCfg.APIKey == "" {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotConfigured, provider)
	}

	var (
		chatModel model.BaseChatModel
		err       error
	)
	switch provider {
	case "openai":
		chatModel, err = openai.NewChatModel(ctx, &openai.ChatModelConfig{
			BaseURL: provCfg.BaseURL,
			Model:   provCfg.Model,
			APIKey:  provCfg.APIKey,
		})
	case "gemini":
		var client *genai.Client
		client, err = genai.NewClient(ctx, &genai.ClientConfig{APIKey: provCfg.APIKey})
		if err != nil {
			return nil, fmt.Errorf("gemini client: %w", err)
		}
		chatModel, err = gemini.NewChatModel(ctx, &gemini.Config{
			Client: client,
			Model:  provCfg.Model,
		})
	case "claude":
		var baseURLPtr *string
		if provCfg.BaseURL != "" {
			baseURLPtr = &provCfg.BaseURL
		}
		chatModel, err = claude.NewChatModel(ctx, &claude.Config{
			APIKey:    provCfg.APIKey,
			Model:     provCfg.Model,
			BaseURL:   baseURLPtr,
			MaxTokens: 2000,
		})
	default:
		return nil, fmt.Errorf("invalid provider: %s", provider)
	}
	if err != nil {
		return nil, fmt.Errorf("init %s chat model: %w", provider, err)
	}
	return &Service{chatModel: chatModel, provider: provider, modelName: provCfg.Model}, nil
}

// Suggestion is one generated query with the model's reasoning.
type Suggestion struct {
	QueryText   string `json:"query_text"`
	Explanation string `json:"explanation"`
}

const generateSystemPrompt = `You translate natural-language questions about a dataset
into JSON query requests of the form {"filter": {...}, "projection": {...},
"sort": {"field": 1 or -1}, "limit": N, "skip": N}, where every key is
optional. Filters support the operators $eq, $ne, $gt, $gte, $lt, $lte, $in,
$nin, $exists, $regex, $not, and the combinators $and and $or. Respond with a
JSON object of the form {"query": <query request>, "explanation": "<one
sentence>"} and nothing else. Never use $where, $function, or $accumulator.`

// GenerateQuery asks the model to express prompt as a structured query over
// the dataset's columns. The generated text is validated the same way a
// user-submitted query is before it is returned.
func (s *Service) GenerateQuery(ctx context.Context, dataset *models.Dataset, prompt string) (*Suggestion, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, errors.New("prompt is required")
	}

	var schemaDesc strings.Builder
	fmt.Fprintf(&schemaDesc, "Dataset %q with %d rows. Columns:\n", dataset.Name, dataset.RowCount)
	for _, col := range dataset.Columns {
		fmt.Fprintf(&schemaDesc, "- %s (%s)\n", col.Name, col.Type)
	}

	out, err := s.chatModel.Generate(ctx, []*schema.Message{
		{Role: schema.System, Content: generateSystemPrompt},
		{Role: schema.User, Content: schemaDesc.String() + "\nQuestion: " + prompt},
	})
	if err != nil {
		return nil, fmt.Errorf("generate query: %w", err)
	}

	var parsed struct {
		Query       json.RawMessage `json:"query"`
		Explanation string          `json:"explanation"`
	}
	raw := stripCodeFence(out.Content)
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("model returned invalid JSON: %w", err)
	}
	if len(parsed.Query) == 0 {
		return nil, errors.New("model returned no query")
	}
	queryText := string(parsed.Query)
	if err := query.ValidateText(queryText); err != nil {
		return nil, fmt.Errorf("model produced a disallowed query: %w", err)
	}
	if _, err := query.ParseRequest(queryText, 0); err != nil {
		return nil, fmt.Errorf("model produced an unusable query: %w", err)
	}
	return &Suggestion{QueryText: queryText, Explanation: parsed.Explanation}, nil
}

// ExplainQuery asks the model for a plain-language description of a query.
func (s *Service) ExplainQuery(ctx context.Context, dataset *models.Dataset, queryText string) (string, error) {
	return s.ask(ctx,
		"You explain JSON dataset queries in one or two plain sentences for non-technical readers.",
		fmt.Sprintf("Dataset columns: %s\nExplain this query: %s", columnNames(dataset), queryText))
}

// ExplainError asks the model why a query failed and how to fix it.
func (s *Service) ExplainError(ctx context.Context, queryText, errorMessage string) (string, error) {
	return s.ask(ctx,
		"You diagnose failed JSON dataset queries. Explain the failure briefly and suggest a corrected query.",
		fmt.Sprintf("Query: %s\nError: %s", queryText, errorMessage))
}

// SuggestImprovements asks the model to refine an existing query.
func (s *Service) SuggestImprovements(ctx context.Context, dataset *models.Dataset, queryText string) (string, error) {
	return s.ask(ctx,
		"You review JSON dataset queries and suggest concrete improvements: tighter filters, useful sorts, sensible limits.",
		fmt.Sprintf("Dataset columns: %s\nQuery under review: %s", columnNames(dataset), queryText))
}

func (s *Service) ask(ctx context.Context, system, user string) (string, error) {
	out, err := s.chatModel.Generate(ctx, []*schema.Message{
		{Role: schema.System, Content: system},
		{Role: schema.User, Content: user},
	})
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	return strings.TrimSpace(out.Content), nil
}

func columnNames(dataset *models.Dataset) string {
	names := make([]string, len(dataset.Columns))
	for i, col := range dataset.Columns {
		names[i] = col.Name
	}
	return strings.Join(names, ", ")
}

// stripCodeFence removes a surrounding markdown fence if the model wrapped
// its JSON in one.
func stripCodeFence(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
