package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"bitbraniac-be/internal/constant"
	"bitbraniac-be/internal/pkg/logger"
	"bitbraniac-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingMailer struct {
	mu   sync.Mutex
	sent []string
}

func (m *recordingMailer) SendWelcome(toEmail, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, toEmail)
	return nil
}

func (m *recordingMailer) recipients() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.sent...)
}

func TestConsumerService_SendsWelcomeMail(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()

	mailer := &recordingMailer{}
	consumer := NewConsumerService(pubSub, constant.ActivityTopic, mailer, "hello", logger.NewNopLogger())
	require.NoError(t, consumer.Consume(ctx))

	publisher := events.NewWatermillPublisher(pubSub, constant.ActivityTopic)
	require.NoError(t, pubSub.Publish(constant.ActivityTopic, message.NewMessage(watermill.NewUUID(), []byte("not json"))))
	require.NoError(t, publisher.Publish(ctx, events.New(constant.EventUserLoggedIn, map[string]interface{}{"user_id": "x"})))
	require.NoError(t, publisher.Publish(ctx, events.New(constant.EventUserRegistered, map[string]interface{}{
		"user_id": "x",
		"email":   "ada@example.com",
	})))

	assert.Eventually(t, func() bool {
		return len(mailer.recipients()) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"ada@example.com"}, mailer.recipients())
}
