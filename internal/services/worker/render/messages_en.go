package render

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func init() {
	lang := language.English

	message.SetString(lang, keySubject, "New Contact Form Message from %s")
	message.SetString(lang, keyHeading, "New Contact Form Submission")
	message.SetString(lang, keyFrom, "From:")
	message.SetString(lang, keyEmail, "Email:")
	message.SetString(lang, keyMessage, "Message:")
}
