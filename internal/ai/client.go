package ai

import (
	"context"

	"github.com/jkorri/gumshoe/internal/errors"
	"github.com/sashabaranov/go-openai"
)

var ErrEmptyCompletion = errors.NewSentinel("model returned no completion")

const MaxTokens = 1024

// Client calls the language generation service. Failures are surfaced to
// the caller; the engine does not retry a generation.
type Client struct {
	client *openai.Client
	model  string
}

func NewClient(apiKey, model string) Client {
	if model == "" {
		model = openai.GPT4oMini
	}
	return Client{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

// Complete performs one synchronous chat completion and returns the reply
// text. An empty reply is an error so a character never appears to answer
// with nothing.
func (c Client) Complete(ctx context.Context, messages []openai.ChatCompletionMessage) (string, error) {
	completion, err := c.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{ //nolint:exhaustruct // this is better for readability
			Model:     c.model,
			MaxTokens: MaxTokens,
			Messages:  messages,
		},
	)
	if err != nil {
		return "", errors.Wrap(err, "create chat completion")
	}
	if len(completion.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	reply := completion.Choices[0].Message.Content
	if reply == "" {
		return "", ErrEmptyCompletion
	}
	return reply, nil
}
