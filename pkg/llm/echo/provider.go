// Package echo is an offline provider for development and smoke runs
// without vendor credentials.
package echo

import (
	"context"
	"fmt"

	"bitbraniac-be/pkg/llm"
)

type EchoProvider struct{}

var _ llm.LLMProvider = &EchoProvider{}

func NewEchoProvider() *EchoProvider {
	return &EchoProvider{}
}

// Chat answers with the last user turn and the number of turns it saw.
func (e *EchoProvider) Chat(ctx context.Context, history []llm.Message, _ ...llm.Option) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	_, turns := llm.SplitSystem(history)
	last := ""
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == llm.RoleUser {
			last = turns[i].Content
			break
		}
	}
	return fmt.Sprintf("echo (%d turns): %s", len(turns), last), nil
}

func (e *EchoProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return e.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, opts...)
}
