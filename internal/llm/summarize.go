package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kevinmichaelchen/repo-summary/internal/models"
	"github.com/rs/zerolog"
)

const summaryTemperature = 0.2

// Summarize asks the summary model for a structured summary of repoContext,
// retrying immediately on any failure up to MaxAttempts times.
func (c *Client) Summarize(ctx context.Context, repoContext string) (*models.SummaryResult, error) {
	logger := zerolog.Ctx(ctx)
	attempts := max(c.MaxAttempts, 1)

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		result, err := c.summarizeOnce(ctx, repoContext)
		if err == nil {
			return result, nil
		}
		lastErr = err
		logger.Warn().Err(err).Int("attempt", attempt).Int("max_attempts", attempts).Msg("summary attempt failed")
	}
	return nil, errorf(lastErr, "LLM summary failed after %d attempts", attempts)
}

func (c *Client) summarizeOnce(ctx context.Context, repoContext string) (*models.SummaryResult, error) {
	text, err := c.complete(ctx, c.SummaryTimeout, c.summaryModel,
		summarySystemPrompt, summaryUser(repoContext), summaryTemperature)
	if err != nil {
		return nil, err
	}
	if text == "" {
		return nil, errors.New("LLM returned empty response")
	}
	return parseSummary(text)
}

// parseSummary requires all three fields; technologies must be a list of strings.
func parseSummary(text string) (*models.SummaryResult, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &fields); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	var out models.SummaryResult
	for _, f := range []struct {
		name string
		dst  any
	}{
		{"summary", &out.Summary},
		{"technologies", &out.Technologies},
		{"structure", &out.Structure},
	} {
		raw, ok := fields[f.name]
		if !ok || string(raw) == "null" {
			return nil, fmt.Errorf("missing field %q", f.name)
		}
		if err := json.Unmarshal(raw, f.dst); err != nil {
			return nil, fmt.Errorf("invalid field %q: %w", f.name, err)
		}
	}
	return &out, nil
}
