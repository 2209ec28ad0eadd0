package email_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/notifykit/pkg/email"
)

func TestDigestSubject(t *testing.T) {
	assert.Equal(t, "App: you have 1 new notification", email.DigestSubject("App", 1))
	assert.Equal(t, "App: you have 5 new notifications", email.DigestSubject("App", 5))
}

func TestRenderDigest(t *testing.T) {
	body := email.RenderDigest("App", []email.DigestItem{
		{Title: "Mention", Content: "alice mentioned you", Link: "https://example.com/p/1"},
		{Content: "bob liked your post"},
	})

	assert.Contains(t, body, "<strong>Mention</strong>")
	assert.Contains(t, body, "alice mentioned you")
	assert.Contains(t, body, `href="https://example.com/p/1"`)
	assert.Contains(t, body, "bob liked your post")
}

func TestRenderDigest_EscapesUserContent(t *testing.T) {
	body := email.RenderDigest("App", []email.DigestItem{
		{Content: "<script>alert(1)</script>"},
	})
	assert.NotContains(t, body, "<script>")
	assert.Contains(t, body, "&lt;script&gt;")
}

func TestNewDigestEmail(t *testing.T) {
	p := email.NewDigestEmail("App", "user@example.com", []email.DigestItem{
		{Content: "hello"},
	})
	assert.Equal(t, "user@example.com", p.SendTo)
	assert.Equal(t, "digest", p.Tag)
	assert.NoError(t, p.Validate())
}
