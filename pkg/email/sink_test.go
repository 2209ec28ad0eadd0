package email_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifykit/pkg/email"
	"github.com/dmitrymomot/notifykit/pkg/notification"
)

type mockSender struct {
	mock.Mock
}

func (m *mockSender) SendEmail(ctx context.Context, params email.SendEmailParams) error {
	args := m.Called(ctx, params)
	return args.Error(0)
}

type captureSender struct {
	sent []email.SendEmailParams
}

func (c *captureSender) SendEmail(ctx context.Context, params email.SendEmailParams) error {
	c.sent = append(c.sent, params)
	return nil
}

func TestSink_Send(t *testing.T) {
	sender := &captureSender{}
	sink := email.NewSink(sender, func(ctx context.Context, userID string) (string, error) {
		return "user@example.com", nil
	}, nil)

	assert.Equal(t, notification.ChannelEmail, sink.Channel())

	err := sink.Send(context.Background(), &notification.Notification{
		ID:       "n1",
		UserID:   "u1",
		Type:     "friend_request",
		Content:  "alice sent you a friend request",
		Link:     "https://example.com/requests",
		Category: notification.CategorySocial,
	})
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)

	sent := sender.sent[0]
	assert.Equal(t, "user@example.com", sent.SendTo)
	assert.Equal(t, "Friend request", sent.Subject)
	assert.Contains(t, sent.BodyHTML, "alice sent you a friend request")
	assert.Equal(t, string(notification.CategorySocial), sent.Tag)
}

func TestSink_NoAddressIsSuccess(t *testing.T) {
	sender := &captureSender{}
	sink := email.NewSink(sender, func(ctx context.Context, userID string) (string, error) {
		return "", nil
	}, nil)

	err := sink.Send(context.Background(), &notification.Notification{ID: "n1", UserID: "u1", Content: "hi"})
	assert.NoError(t, err)
	assert.Empty(t, sender.sent, "nothing should be sent without an address")
}

func TestSink_LookupError(t *testing.T) {
	sink := email.NewSink(&captureSender{}, func(ctx context.Context, userID string) (string, error) {
		return "", errors.New("directory down")
	}, nil)

	err := sink.Send(context.Background(), &notification.Notification{ID: "n1", UserID: "u1", Content: "hi"})
	assert.ErrorIs(t, err, email.ErrAddressLookup)
}

func TestSink_SenderErrorPropagates(t *testing.T) {
	sendErr := errors.New("smtp down")
	sender := new(mockSender)
	sender.On("SendEmail", mock.Anything, mock.AnythingOfType("email.SendEmailParams")).Return(sendErr)

	sink := email.NewSink(sender, func(ctx context.Context, userID string) (string, error) {
		return "user@example.com", nil
	}, nil)

	err := sink.Send(context.Background(), &notification.Notification{ID: "n1", UserID: "u1", Content: "hi"})
	assert.ErrorIs(t, err, sendErr)
	sender.AssertExpectations(t)
}
