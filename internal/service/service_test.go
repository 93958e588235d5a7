package service

import (
	"context"
	"strings"
	"sync"
	"testing"

	"bitbraniac-be/internal/pkg/logger"
	"bitbraniac-be/internal/pkg/testdb"
	"bitbraniac-be/internal/repository/unitofwork"
	"bitbraniac-be/pkg/events"
	"bitbraniac-be/pkg/llm"
	"bitbraniac-be/pkg/lock"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, 0, len(p.events))
	for _, e := range p.events {
		types = append(types, e.EventType())
	}
	return types
}

// fakeLLM answers with reply(history) and keeps every request it saw.
type fakeLLM struct {
	mu    sync.Mutex
	calls [][]llm.Message
	reply func(history []llm.Message) (string, error)
}

func (f *fakeLLM) Chat(_ context.Context, history []llm.Message, _ ...llm.Option) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, append([]llm.Message(nil), history...))
	f.mu.Unlock()
	return f.reply(history)
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return f.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, options...)
}

func (f *fakeLLM) lastCall() []llm.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return nil
	}
	return f.calls[len(f.calls)-1]
}

// echoLast replies "re: <last user message>".
func echoLast(history []llm.Message) (string, error) {
	return "re: " + history[len(history)-1].Content, nil
}

type fixture struct {
	factory   unitofwork.RepositoryFactory
	publisher *recordingPublisher
	log       logger.ILogger
	history   *chatHistoryService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		factory:   unitofwork.NewRepositoryFactory(testdb.New(t)),
		publisher: &recordingPublisher{},
		log:       logger.NewNopLogger(),
	}
	f.history = NewChatHistoryService(f.factory, lock.NewMemoryLocker(), f.publisher, f.log).(*chatHistoryService)
	return f
}

// newUser registers a user through the auth service and returns its id.
func (f *fixture) newUser(t *testing.T, email string) uuid.UUID {
	t.Helper()
	res, err := f.auth().Register(context.Background(), registerReq(email, "secret123"), "127.0.0.1", "test")
	require.NoError(t, err)
	return res.User.Id
}

func (f *fixture) auth() *authService {
	svc := NewAuthService(f.factory, testTokens(), f.publisher, f.log).(*authService)
	svc.hashCost = bcrypt.MinCost
	return svc
}

func repeat(s string, n int) string {
	return strings.Repeat(s, n)
}
