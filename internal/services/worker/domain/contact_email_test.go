package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/louisbranch/storefront/internal/services/storefront/storage"
	"github.com/louisbranch/storefront/internal/services/worker/mail"
)

type recordingSender struct {
	sent []mail.Message
	err  error
}

func (s *recordingSender) Send(_ context.Context, msg mail.Message) error {
	s.sent = append(s.sent, msg)
	return s.err
}

func TestContactEmailHandlerSends(t *testing.T) {
	t.Parallel()

	sender := &recordingSender{}
	handler := NewContactEmailHandler(sender, "en-US")
	err := handler.Handle(context.Background(), storage.ContactMessage{
		ID:             "msg-1",
		Name:           "Ana",
		Email:          "ana@example.com",
		Message:        "Hi\nthere",
		RecipientEmail: "inbox@shop.test",
	})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("sent = %d, want 1", len(sender.sent))
	}
	got := sender.sent[0]
	if got.To != "inbox@shop.test" || got.ReplyTo != "ana@example.com" {
		t.Fatalf("addresses = %q / %q", got.To, got.ReplyTo)
	}
	if got.Subject != "New Contact Form Message from Ana" || !strings.Contains(got.HTMLBody, "Hi<br>there") {
		t.Fatalf("message = %+v", got)
	}
}

func TestContactEmailHandlerErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		handler   *ContactEmailHandler
		message   storage.ContactMessage
		permanent bool
	}{
		{
			name:      "no sender",
			handler:   NewContactEmailHandler(nil, "en"),
			message:   storage.ContactMessage{RecipientEmail: "inbox@shop.test"},
			permanent: true,
		},
		{
			name:      "no recipient",
			handler:   NewContactEmailHandler(&recordingSender{}, "en"),
			message:   storage.ContactMessage{ID: "msg-2"},
			permanent: true,
		},
		{
			name:      "bad address",
			handler:   NewContactEmailHandler(&recordingSender{err: fmt.Errorf("%w: to", mail.ErrInvalidAddress)}, "en"),
			message:   storage.ContactMessage{RecipientEmail: "inbox"},
			permanent: true,
		},
		{
			name:      "smtp outage",
			handler:   NewContactEmailHandler(&recordingSender{err: errors.New("connection refused")}, "en"),
			message:   storage.ContactMessage{RecipientEmail: "inbox@shop.test"},
			permanent: false,
		},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := tc.handler.Handle(context.Background(), tc.message)
			if err == nil {
				t.Fatal("expected error")
			}
			if IsPermanent(err) != tc.permanent {
				t.Fatalf("IsPermanent = %v, want %v (err %v)", IsPermanent(err), tc.permanent, err)
			}
		})
	}
}

func TestPermanent(t *testing.T) {
	t.Parallel()

	if Permanent(nil) != nil {
		t.Fatal("Permanent(nil) should be nil")
	}
	base := errors.New("boom")
	wrapped := fmt.Errorf("outer: %w", Permanent(base))
	if !IsPermanent(wrapped) || !errors.Is(wrapped, base) {
		t.Fatalf("wrapped permanent lost its marker or cause: %v", wrapped)
	}
	if IsPermanent(base) {
		t.Fatal("plain error reported as permanent")
	}
}
