package mailer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTemplateRendersBlocksInOrder(t *testing.T) {
	out := NewTemplate("Dassyor").
		Header("Hello", "sub").
		Paragraph("first").
		Button("Go", "https://example.com/go").
		Paragraph("second").
		HTML()

	assert.Contains(t, out, "Hello")
	assert.Contains(t, out, "sub")
	assert.Contains(t, out, `href="https://example.com/go"`)
	assert.Less(t, strings.Index(out, "first"), strings.Index(out, "second"))
	assert.Contains(t, out, "The Dassyor team")
}

func TestTemplateEscapesUserContent(t *testing.T) {
	out := NewTemplate("Dassyor").
		Paragraph(`<script>alert("x")</script>`).
		HTML()

	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "&lt;script&gt;")
}

func TestConfirmationEmail(t *testing.T) {
	out := ConfirmationEmail("Dassyor", "Alice", "https://app.example.com/confirm?token=abc")

	assert.Contains(t, out, "Hi Alice,")
	assert.Contains(t, out, "Confirm email")
	assert.Contains(t, out, "token=abc")
}

func TestInvitationEmailListsBothActions(t *testing.T) {
	out := InvitationEmail("Dassyor", "Bob", "Rocket", "https://a/accept", "https://a/reject")

	assert.Contains(t, out, "Bob invited you")
	assert.Contains(t, out, `href="https://a/accept"`)
	assert.Contains(t, out, `href="https://a/reject"`)
	assert.Contains(t, out, "expires in 7 days")
}

func TestIdeaResultsEmailWithPosts(t *testing.T) {
	out := IdeaResultsEmail("Dassyor", "meal planner", "Looks promising.", []ListItem{
		{Text: "Post one", URL: "https://x/1"},
		{Text: "Post two", URL: "https://x/2"},
	})

	assert.Contains(t, out, "meal planner")
	assert.Contains(t, out, "Looks promising.")
	assert.Contains(t, out, `href="https://x/1"`)
	assert.Contains(t, out, "Post two")
}
