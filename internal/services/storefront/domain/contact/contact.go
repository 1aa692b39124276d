// Package contact accepts contact form submissions and exposes them to
// admins. Email delivery happens later in the delivery worker.
package contact

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/louisbranch/storefront/internal/platform/errors"
	"github.com/louisbranch/storefront/internal/platform/id"
	"github.com/louisbranch/storefront/internal/services/storefront/domain"
	"github.com/louisbranch/storefront/internal/services/storefront/storage"
	"go.uber.org/zap"
)

// RecipientSettingKey names the site setting holding the inbox address.
const RecipientSettingKey = "contact_email"

var (
	// ErrNameEmpty indicates a missing sender name.
	ErrNameEmpty = apperrors.New(apperrors.CodeContactNameEmpty, "contact name is required")
	// ErrInvalidEmail indicates a malformed sender address.
	ErrInvalidEmail = apperrors.New(apperrors.CodeContactInvalidEmail, "contact email is invalid")
	// ErrMessageEmpty indicates a missing message body.
	ErrMessageEmpty = apperrors.New(apperrors.CodeContactMessageEmpty, "contact message is required")
	// ErrNotConfigured indicates the recipient setting is absent.
	ErrNotConfigured = apperrors.New(apperrors.CodeContactNotConfigured, "contact email not configured")
)

// SettingLookup reads a site setting value.
type SettingLookup interface {
	SettingValue(ctx context.Context, key string) (string, bool, error)
}

// Notifier is told when a new message is waiting for delivery.
type Notifier interface {
	Notify()
}

// Submission is one contact form post.
type Submission struct {
	Name    string
	Email   string
	Message string
}

// Config wires a Service.
type Config struct {
	Store    storage.ContactStore
	Settings SettingLookup
	Limiter  *Limiter
	Notifier Notifier
	Logger   *zap.Logger
}

// Service stores and manages contact messages.
type Service struct {
	store    storage.ContactStore
	settings SettingLookup
	limiter  *Limiter
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time
	newID    func() (string, error)
}

// NewService builds a contact service. A nil limiter disables rate limiting.
func NewService(cfg Config) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:    cfg.Store,
		settings: cfg.Settings,
		limiter:  cfg.Limiter,
		notifier: cfg.Notifier,
		logger:   logger,
		now:      time.Now,
		newID:    id.NewID,
	}
}

// Submit validates and stores a message from clientKey for later delivery.
func (s *Service) Submit(ctx context.Context, clientKey string, submission Submission) (storage.ContactMessage, error) {
	submission.Name = strings.TrimSpace(submission.Name)
	submission.Email = domain.NormalizeEmail(submission.Email)
	submission.Message = strings.TrimSpace(submission.Message)
	switch {
	case submission.Name == "":
		return storage.ContactMessage{}, ErrNameEmpty
	case !domain.ValidEmail(submission.Email):
		return storage.ContactMessage{}, ErrInvalidEmail
	case submission.Message == "":
		return storage.ContactMessage{}, ErrMessageEmpty
	}

	recipient, ok, err := s.settings.SettingValue(ctx, RecipientSettingKey)
	if err != nil {
		return storage.ContactMessage{}, fmt.Errorf("load contact recipient: %w", err)
	}
	if !ok {
		return storage.ContactMessage{}, ErrNotConfigured
	}

	var reservation *Reservation
	if s.limiter != nil {
		var wait time.Duration
		reservation, wait = s.limiter.Reserve(clientKey)
		if reservation == nil {
			return storage.ContactMessage{}, apperrors.WithMetadata(apperrors.CodeContactRateLimited, "contact rate limited",
				map[string]string{"Minutes": strconv.Itoa(WaitMinutes(wait))})
		}
	}

	message, err := s.persist(ctx, submission, recipient)
	if err != nil {
		reservation.Cancel()
		return storage.ContactMessage{}, err
	}
	s.logger.Info("contact message stored",
		zap.String("message_id", message.ID),
		zap.String("recipient", message.RecipientEmail),
	)
	if s.notifier != nil {
		s.notifier.Notify()
	}
	return message, nil
}

func (s *Service) persist(ctx context.Context, submission Submission, recipient string) (storage.ContactMessage, error) {
	messageID, err := s.newID()
	if err != nil {
		return storage.ContactMessage{}, fmt.Errorf("generate message id: %w", err)
	}
	now := s.now().UTC()
	message := storage.ContactMessage{
		ID:             messageID,
		Name:           submission.Name,
		Email:          submission.Email,
		Message:        submission.Message,
		RecipientEmail: recipient,
		NextAttemptAt:  now,
		CreatedAt:      now,
	}
	if err := s.store.CreateContactMessage(ctx, message); err != nil {
		return storage.ContactMessage{}, fmt.Errorf("create contact message: %w", err)
	}
	return message, nil
}

// List returns every message, newest first.
func (s *Service) List(ctx context.Context) ([]storage.ContactMessage, error) {
	messages, err := s.store.ListContactMessages(ctx)
	if err != nil {
		return nil, fmt.Errorf("list contact messages: %w", err)
	}
	return messages, nil
}

// MarkRead flags a message as read.
func (s *Service) MarkRead(ctx context.Context, messageID string) error {
	return domain.StorageError(s.store.MarkContactMessageRead(ctx, messageID), "contact message")
}

// Delete removes a message.
func (s *Service) Delete(ctx context.Context, messageID string) error {
	return domain.StorageError(s.store.DeleteContactMessage(ctx, messageID), "contact message")
}
