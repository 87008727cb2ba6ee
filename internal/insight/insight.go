// Package insight asks an LLM for a short natural-language summary of a
// scraped batch. It is strictly best-effort: a missing key disables it and
// any API failure is reported to the caller as an error to log, never to
// act on.
package insight

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"chartscraper/internal/domain"
)

const (
	requestTimeout = 30 * time.Second
	sampleRows     = 20
)

const systemPrompt = "You are a music-streaming analyst. Given rows of " +
	"chart data (date plus per-market stream counts), write a short plain " +
	"summary of notable trends: growth, peaks, and markets that stand out. " +
	"Three sentences at most."

// Generator produces summaries via the OpenAI chat API.
type Generator struct {
	client *openai.Client
	logger *zap.Logger
}

// New returns a generator; with an empty API key it is disabled and every
// call is a silent no-op.
func New(apiKey string, logger *zap.Logger) *Generator {
	g := &Generator{logger: logger}
	if apiKey != "" {
		g.client = openai.NewClient(apiKey)
	}
	return g
}

// Enabled reports whether an API key was configured.
func (g *Generator) Enabled() bool {
	return g.client != nil
}

// SummarizeRange sends a sample of the range table and returns the model's
// summary. Returns "" with no error when disabled.
func (g *Generator) SummarizeRange(ctx context.Context, table *domain.RangeTable) (string, error) {
	if g.client == nil {
		return "", nil
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: openai.GPT3Dot5Turbo,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: sample(table)},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// sample renders the first rows of the table as compact text. The model
// only needs a representative slice, not the full run.
func sample(table *domain.RangeTable) string {
	var b strings.Builder
	b.WriteString("chart_date")
	for _, m := range table.Markets {
		b.WriteString("\t")
		b.WriteString(m)
	}
	b.WriteString("\n")

	n := len(table.Rows)
	if n > sampleRows {
		n = sampleRows
	}
	for _, row := range table.Rows[:n] {
		b.WriteString(row.ChartDate)
		for _, m := range table.Markets {
			b.WriteString("\t")
			if v := row.Streams[m]; v != nil {
				fmt.Fprintf(&b, "%d", *v)
			} else {
				b.WriteString("--")
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}
