package email

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"strings"

	"github.com/dmitrymomot/notifykit/pkg/logger"
	"github.com/dmitrymomot/notifykit/pkg/notification"
)

// AddressLookup resolves a user ID to an email address.
// Returning an empty address means the user has no email on file.
type AddressLookup func(ctx context.Context, userID string) (string, error)

// Sink delivers notifications over email. A user without an address on
// file is not an error: there is nothing to send, so the attempt counts
// as handled.
type Sink struct {
	sender EmailSender
	lookup AddressLookup
	log    *slog.Logger
}

// NewSink wires an EmailSender into the delivery fan-out.
func NewSink(sender EmailSender, lookup AddressLookup, log *slog.Logger) *Sink {
	if log == nil {
		log = slog.Default()
	}
	return &Sink{sender: sender, lookup: lookup, log: log}
}

func (s *Sink) Channel() notification.Channel {
	return notification.ChannelEmail
}

func (s *Sink) Send(ctx context.Context, n *notification.Notification) error {
	addr, err := s.lookup(ctx, n.UserID)
	if err != nil {
		return errors.Join(ErrAddressLookup, err)
	}
	if addr == "" {
		s.log.InfoContext(ctx, "no email address on file, skipping",
			logger.UserID(n.UserID),
			logger.NotificationID(n.ID),
		)
		return nil
	}

	return s.sender.SendEmail(ctx, SendEmailParams{
		SendTo:   addr,
		Subject:  subjectFromType(n.Type),
		BodyHTML: renderNotification(n),
		Tag:      string(n.Category),
	})
}

// subjectFromType turns a machine notification type like
// "friend_request" into a human subject line.
func subjectFromType(t string) string {
	if t == "" {
		return "New notification"
	}
	s := strings.ReplaceAll(t, "_", " ")
	return strings.ToUpper(s[:1]) + s[1:]
}

func renderNotification(n *notification.Notification) string {
	var sb strings.Builder
	sb.WriteString("<html><body>")
	fmt.Fprintf(&sb, "<p>%s</p>", html.EscapeString(n.Content))
	if n.Link != "" {
		fmt.Fprintf(&sb, `<p><a href="%s">View</a></p>`, html.EscapeString(n.Link))
	}
	sb.WriteString("</body></html>")
	return sb.String()
}
