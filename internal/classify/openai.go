package classify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const (
	// DefaultChatModel is the OpenAI model used for classification.
	DefaultChatModel = openai.GPT4oMini

	// DefaultRequestTimeout bounds a single classification call so a slow
	// provider stalls at most one item.
	DefaultRequestTimeout = 20 * time.Second

	summaryLabel = "summary:"
	tagsLabel    = "tags:"
	maxTags      = 3
)

// ErrNoChoices is returned when the provider responds without any completion.
var ErrNoChoices = errors.New("no completion choices returned")

// ChatAPI is the slice of the OpenAI SDK this package uses. *openai.Client
// satisfies it; tests substitute their own.
type ChatAPI interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIClassifier is the primary strategy. It asks the model for exactly two
// labeled lines (SUMMARY: and TAGS:) and filters the returned tags down to
// the fixed vocabulary. Any transport error or missing completion is an
// error for the composing FallbackClassifier to catch.
type OpenAIClassifier struct {
	api        ChatAPI
	vocabulary Vocabulary
	model      string
	timeout    time.Duration
}

// OpenAIConfig holds explicit configuration for the OpenAI strategy.
type OpenAIConfig struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

// NewOpenAIClassifier creates the primary strategy using defaults.
func NewOpenAIClassifier(apiKey string, vocabulary Vocabulary) *OpenAIClassifier {
	return NewOpenAIClassifierWithConfig(OpenAIConfig{APIKey: apiKey}, vocabulary)
}

// NewOpenAIClassifierWithConfig creates the primary strategy with explicit
// configuration.
func NewOpenAIClassifierWithConfig(cfg OpenAIConfig, vocabulary Vocabulary) *OpenAIClassifier {
	model := cfg.Model
	if model == "" {
		model = DefaultChatModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return &OpenAIClassifier{
		api:        openai.NewClient(cfg.APIKey),
		vocabulary: vocabulary,
		model:      model,
		timeout:    timeout,
	}
}

// NewOpenAIClassifierWithAPI creates the strategy over a custom ChatAPI (for
// testing).
func NewOpenAIClassifierWithAPI(api ChatAPI, vocabulary Vocabulary) *OpenAIClassifier {
	return &OpenAIClassifier{
		api:        api,
		vocabulary: vocabulary,
		model:      DefaultChatModel,
		timeout:    DefaultRequestTimeout,
	}
}

// Classify implements Classifier.
func (c *OpenAIClassifier) Classify(ctx context.Context, title, bodyText string) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You summarize municipal council agenda items for residents. Answer with exactly two lines and nothing else.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: c.buildPrompt(title, bodyText),
			},
		},
	})
	if err != nil {
		return Result{}, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Result{}, ErrNoChoices
	}

	return c.parseResponse(resp.Choices[0].Message.Content), nil
}

func (c *OpenAIClassifier) buildPrompt(title, bodyText string) string {
	var topics []string
	for _, topic := range c.vocabulary {
		topics = append(topics, topic.Name)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Agenda item title: %s\n\n", title)
	fmt.Fprintf(&b, "Agenda item text:\n%s\n\n", truncate(bodyText, MaxBodyPrefix))
	b.WriteString("Write a one-to-two sentence plain-language summary of what this item means for residents, ")
	b.WriteString("then pick one to three topics from this list: ")
	b.WriteString(strings.Join(topics, ", "))
	b.WriteString(".\nRespond with exactly two lines:\nSUMMARY: <summary>\nTAGS: <comma-separated topics>")
	return b.String()
}

// parseResponse locates the SUMMARY: and TAGS: lines (case-insensitive). An
// unparseable summary falls back to the truncated raw response; tags that
// survive vocabulary filtering are capped at three, and "general" stands in
// when none survive.
func (c *OpenAIClassifier) parseResponse(content string) Result {
	var summary string
	var tags []string

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		lower := strings.ToLower(line)
		switch {
		case strings.HasPrefix(lower, summaryLabel):
			summary = strings.TrimSpace(line[len(summaryLabel):])
		case strings.HasPrefix(lower, tagsLabel):
			tags = c.filterTags(line[len(tagsLabel):])
		}
	}

	if summary == "" {
		summary = truncate(strings.TrimSpace(content), MaxSummaryLength)
	} else {
		summary = truncate(summary, MaxSummaryLength)
	}

	if len(tags) == 0 {
		tags = []string{GeneralTag}
	}

	return Result{Summary: summary, Tags: tags}
}

func (c *OpenAIClassifier) filterTags(raw string) []string {
	var tags []string
	seen := make(map[string]bool)

	for _, token := range strings.Split(raw, ",") {
		name := strings.ToLower(strings.TrimSpace(token))
		name = strings.Join(strings.Fields(name), "_")
		if name == "" || seen[name] || !c.vocabulary.Contains(name) {
			continue
		}
		seen[name] = true
		tags = append(tags, name)
		if len(tags) == maxTags {
			break
		}
	}
	return tags
}
