package email

import (
	"fmt"
	"html"
	"strings"
)

// DigestItem is one buffered notification rendered into a digest email.
type DigestItem struct {
	Title   string
	Content string
	Link    string
}

// DigestSubject returns the subject line for a digest of n items.
func DigestSubject(appName string, n int) string {
	if n == 1 {
		return fmt.Sprintf("%s: you have 1 new notification", appName)
	}
	return fmt.Sprintf("%s: you have %d new notifications", appName, n)
}

// RenderDigest assembles one HTML body from the buffered items, in the
// order they were collected. All user-supplied text is escaped.
func RenderDigest(appName string, items []DigestItem) string {
	var sb strings.Builder
	sb.WriteString("<html><body>")
	fmt.Fprintf(&sb, "<h2>%s</h2>", html.EscapeString(appName))
	sb.WriteString("<ul>")
	for _, it := range items {
		sb.WriteString("<li>")
		if it.Title != "" {
			fmt.Fprintf(&sb, "<strong>%s</strong>: ", html.EscapeString(it.Title))
		}
		sb.WriteString(html.EscapeString(it.Content))
		if it.Link != "" {
			fmt.Fprintf(&sb, ` <a href="%s">View</a>`, html.EscapeString(it.Link))
		}
		sb.WriteString("</li>")
	}
	sb.WriteString("</ul></body></html>")
	return sb.String()
}

// NewDigestEmail builds the outgoing message for a recipient's buffered
// digest items.
func NewDigestEmail(appName, sendTo string, items []DigestItem) SendEmailParams {
	return SendEmailParams{
		SendTo:   sendTo,
		Subject:  DigestSubject(appName, len(items)),
		BodyHTML: RenderDigest(appName, items),
		Tag:      "digest",
	}
}
