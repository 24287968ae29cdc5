package llm

import (
	"context"
	"math"
	"strings"
	"sync"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const (
	DefaultSelectionTimeout = 30 * time.Second
	DefaultSummaryTimeout   = 90 * time.Second
	DefaultMaxAttempts      = 2
)

// clients memoises one OpenAI client per (base URL, key) pair for the life
// of the process.
var clients sync.Map

// ClientFor returns the shared OpenAI-compatible client for baseURL and apiKey.
func ClientFor(baseURL, apiKey string) *openai.Client {
	key := baseURL + "\x00" + apiKey
	if c, ok := clients.Load(key); ok {
		return c.(*openai.Client)
	}
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = strings.TrimSuffix(baseURL, "/")
	c, _ := clients.LoadOrStore(key, openai.NewClientWithConfig(cfg))
	return c.(*openai.Client)
}

// Client runs the file-selection and summary model calls.
type Client struct {
	client         *openai.Client
	selectionModel string
	summaryModel   string

	SelectionTimeout time.Duration
	SummaryTimeout   time.Duration
	MaxAttempts      int
}

func NewClient(baseURL, apiKey, selectionModel, summaryModel string) *Client {
	return &Client{
		client:           ClientFor(baseURL, apiKey),
		selectionModel:   selectionModel,
		summaryModel:     summaryModel,
		SelectionTimeout: DefaultSelectionTimeout,
		SummaryTimeout:   DefaultSummaryTimeout,
		MaxAttempts:      DefaultMaxAttempts,
	}
}

// zeroTemperature stands in for 0, which the request encoder omits.
const zeroTemperature = math.SmallestNonzeroFloat32

// complete sends one JSON-mode chat request and returns the trimmed reply text.
func (c *Client) complete(ctx context.Context, timeout time.Duration, model, system, user string, temperature float32) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: temperature,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return stripCodeFences(resp.Choices[0].Message.Content), nil
}

// stripCodeFences removes markdown code fences that some models wrap around JSON.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		// Remove opening fence (```json or ```)
		if i := strings.Index(s, "\n"); i != -1 {
			s = s[i+1:]
		} else {
			s = strings.TrimPrefix(s, "```")
		}
		// Remove closing fence
		if i := strings.LastIndex(s, "```"); i != -1 {
			s = s[:i]
		}
		s = strings.TrimSpace(s)
	}
	return s
}
