package render

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func init() {
	lang := language.BrazilianPortuguese

	message.SetString(lang, keySubject, "Nova mensagem do formulário de contato de %s")
	message.SetString(lang, keyHeading, "Novo envio do formulário de contato")
	message.SetString(lang, keyFrom, "De:")
	message.SetString(lang, keyEmail, "E-mail:")
	message.SetString(lang, keyMessage, "Mensagem:")
}
