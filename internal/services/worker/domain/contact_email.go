// Package domain turns stored contact messages into outgoing email.
package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/louisbranch/storefront/internal/services/storefront/storage"
	"github.com/louisbranch/storefront/internal/services/worker/mail"
	"github.com/louisbranch/storefront/internal/services/worker/render"
)

// ContactEmailHandler emails one contact message to its recipient.
type ContactEmailHandler struct {
	sender mail.Sender
	loc    render.Localizer
}

// NewContactEmailHandler builds a handler rendering in locale.
func NewContactEmailHandler(sender mail.Sender, locale string) *ContactEmailHandler {
	return &ContactEmailHandler{sender: sender, loc: render.NewLocalizer(locale)}
}

// Handle renders and sends message. Address problems are permanent.
func (h *ContactEmailHandler) Handle(ctx context.Context, message storage.ContactMessage) error {
	if h == nil || h.sender == nil {
		return Permanent(fmt.Errorf("mail sender is not configured"))
	}
	recipient := strings.TrimSpace(message.RecipientEmail)
	if recipient == "" {
		return Permanent(fmt.Errorf("message %s has no recipient", message.ID))
	}
	out := render.Render(h.loc, render.Input{
		Name:    message.Name,
		Email:   message.Email,
		Message: message.Message,
	})
	err := h.sender.Send(ctx, mail.Message{
		To:       recipient,
		ReplyTo:  message.Email,
		Subject:  out.Subject,
		HTMLBody: out.HTMLBody,
		TextBody: out.TextBody,
	})
	if err == nil {
		return nil
	}
	if errors.Is(err, mail.ErrInvalidAddress) {
		return Permanent(err)
	}
	return err
}
