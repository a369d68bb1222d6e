package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/lectio/lectio/internal/domain"
	"github.com/lectio/lectio/internal/port"
)

const (
	defaultChatModel = openai.GPT4oMini
	defaultEmbedding = openai.SmallEmbedding3
)

const summarizePrompt = "You summarize lecture transcripts. Write a short, plain-prose summary " +
	"(3-5 sentences) of the main topics covered. Do not use bullet points or headings."

const formatPrompt = "You format raw speech-to-text transcripts. Insert paragraph breaks where " +
	"the topic shifts. Do not alter, add, remove or correct any words; return the exact same " +
	"text with only blank lines inserted between paragraphs."

// Client adapts the OpenAI API to the transcription, text-generation
// and embedding ports. All errors are mapped onto the closed
// Retryable/Fatal taxonomy so retry policies never inspect SDK error
// shapes.
type Client struct {
	api        *openai.Client
	chatModel  string
	embedModel openai.EmbeddingModel
}

var (
	_ port.Transcriber   = (*Client)(nil)
	_ port.TextGenerator = (*Client)(nil)
	_ port.Embedder      = (*Client)(nil)
)

func New(apiKey string) *Client {
	return &Client{
		api:        openai.NewClient(apiKey),
		chatModel:  defaultChatModel,
		embedModel: defaultEmbedding,
	}
}

func (c *Client) Transcribe(ctx context.Context, audioPath string) (string, error) {
	resp, err := c.api.CreateTranscription(ctx, openai.AudioRequest{
		Model:    openai.Whisper1,
		FilePath: audioPath,
	})
	if err != nil {
		return "", classify("transcribe", err)
	}
	return resp.Text, nil
}

func (c *Client) Summarize(ctx context.Context, transcript string) (string, error) {
	return c.chat(ctx, "summarize", summarizePrompt, transcript)
}

func (c *Client) FormatParagraphs(ctx context.Context, transcript string) (string, error) {
	return c.chat(ctx, "format transcript", formatPrompt, transcript)
}

func (c *Client) chat(ctx context.Context, op, system, user string) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.chatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return "", classify(op, err)
	}
	if len(resp.Choices) == 0 {
		return "", &domain.FatalError{Op: op, Err: errors.New("response contained no choices")}
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", &domain.FatalError{Op: op, Err: errors.New("response text was empty")}
	}
	return text, nil
}

func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := c.api.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: c.embedModel,
	})
	if err != nil {
		return nil, classify("embed", err)
	}

	vectors := make([][]float32, len(resp.Data))
	for _, item := range resp.Data {
		if item.Index < 0 || item.Index >= len(vectors) {
			return nil, &domain.FatalError{
				Op:  "embed",
				Err: fmt.Errorf("response index %d out of range for %d inputs", item.Index, len(texts)),
			}
		}
		vectors[item.Index] = item.Embedding
	}
	return vectors, nil
}

// classify maps SDK errors to the closed error taxonomy: rate limits
// and 5xx responses are retryable, other HTTP statuses are fatal, and
// transport-level failures (no status at all) are retryable.
func classify(op string, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return classifyStatus(op, apiErr.HTTPStatusCode, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return classifyStatus(op, reqErr.HTTPStatusCode, err)
	}
	return &domain.RetryableError{Op: op, Err: err}
}

func classifyStatus(op string, status int, err error) error {
	if status == http.StatusTooManyRequests || status >= http.StatusInternalServerError {
		return &domain.RetryableError{Op: op, Err: err}
	}
	return &domain.FatalError{Op: op, Err: err}
}
