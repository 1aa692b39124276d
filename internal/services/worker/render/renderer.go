// Package render builds the email sent for a contact form message.
package render

import (
	"html"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	keySubject = "contact.email.subject"
	keyHeading = "contact.email.heading"
	keyFrom    = "contact.email.from"
	keyEmail   = "contact.email.email"
	keyMessage = "contact.email.message"
)

// Localizer is the message-printer surface the renderer needs.
type Localizer interface {
	Sprintf(key message.Reference, args ...any) string
}

// Input is the stored contact message being delivered.
type Input struct {
	Name    string
	Email   string
	Message string
}

// Output is the rendered email.
type Output struct {
	Subject  string
	HTMLBody string
	TextBody string
}

// supported lists the locales with a message catalog. The first entry is
// the fallback.
var supported = []language.Tag{language.English, language.BrazilianPortuguese}

var matcher = language.NewMatcher(supported)

// NewLocalizer returns a printer for the closest supported locale, falling
// back to English.
func NewLocalizer(locale string) Localizer {
	tag, err := language.Parse(strings.TrimSpace(locale))
	if err != nil {
		return message.NewPrinter(supported[0])
	}
	_, index, confidence := matcher.Match(tag)
	if confidence == language.No {
		index = 0
	}
	return message.NewPrinter(supported[index])
}

// Render produces the notification email. Sender-supplied text is escaped
// in the HTML body and newlines become <br>.
func Render(loc Localizer, input Input) Output {
	if loc == nil {
		loc = NewLocalizer("en")
	}
	name := strings.TrimSpace(input.Name)
	email := strings.TrimSpace(input.Email)
	body := strings.TrimSpace(input.Message)

	var b strings.Builder
	b.WriteString("<h2>" + html.EscapeString(loc.Sprintf(keyHeading)) + "</h2>\n")
	b.WriteString("<p><strong>" + html.EscapeString(loc.Sprintf(keyFrom)) + "</strong> " + html.EscapeString(name) + "</p>\n")
	b.WriteString("<p><strong>" + html.EscapeString(loc.Sprintf(keyEmail)) + "</strong> " + html.EscapeString(email) + "</p>\n")
	b.WriteString("<p><strong>" + html.EscapeString(loc.Sprintf(keyMessage)) + "</strong></p>\n")
	b.WriteString("<p>" + strings.ReplaceAll(html.EscapeString(body), "\n", "<br>") + "</p>\n")

	text := loc.Sprintf(keyFrom) + " " + name + "\n" +
		loc.Sprintf(keyEmail) + " " + email + "\n\n" +
		body + "\n"

	return Output{
		Subject:  loc.Sprintf(keySubject, name),
		HTMLBody: b.String(),
		TextBody: text,
	}
}
