package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/storefront/internal/services/storefront/storage"
)

const contactColumnsSQL = `id, name, email, message, recipient_email, email_sent, read,
       attempts, last_error, next_attempt_at, created_at`

// CreateContactMessage inserts a message awaiting delivery.
func (s *Store) CreateContactMessage(ctx context.Context, message storage.ContactMessage) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(message.ID) == "" {
		return fmt.Errorf("message id is required")
	}
	createdAt := message.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.clock()
	}
	nextAttemptAt := message.NextAttemptAt
	if nextAttemptAt.IsZero() {
		nextAttemptAt = createdAt
	}
	if _, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO contact_messages (`+contactColumnsSQL+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		message.ID,
		message.Name,
		message.Email,
		message.Message,
		message.RecipientEmail,
		boolInt(message.EmailSent),
		boolInt(message.Read),
		message.Attempts,
		message.LastError,
		toMillis(nextAttemptAt),
		toMillis(createdAt),
	); err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("create contact message: %w", err)
	}
	return nil
}

// GetContactMessage returns one message by ID.
func (s *Store) GetContactMessage(ctx context.Context, id string) (storage.ContactMessage, error) {
	if err := s.ready(ctx); err != nil {
		return storage.ContactMessage{}, err
	}
	message, err := scanContactMessage(s.sqlDB.QueryRowContext(ctx,
		"SELECT "+contactColumnsSQL+" FROM contact_messages WHERE id = ?",
		strings.TrimSpace(id),
	))
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ContactMessage{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.ContactMessage{}, fmt.Errorf("get contact message: %w", err)
	}
	return message, nil
}

// ListContactMessages returns every message, newest first.
func (s *Store) ListContactMessages(ctx context.Context) ([]storage.ContactMessage, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	return s.queryContactMessages(ctx,
		"SELECT "+contactColumnsSQL+" FROM contact_messages ORDER BY created_at DESC, id ASC",
	)
}

// MarkContactMessageRead flags a message as read.
func (s *Store) MarkContactMessageRead(ctx context.Context, id string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	result, err := s.sqlDB.ExecContext(ctx, `UPDATE contact_messages SET read = 1 WHERE id = ?`, strings.TrimSpace(id))
	if err != nil {
		return fmt.Errorf("mark contact message read: %w", err)
	}
	return requireAffected(result, "mark contact message read")
}

// DeleteContactMessage removes one message.
func (s *Store) DeleteContactMessage(ctx context.Context, id string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	result, err := s.sqlDB.ExecContext(ctx, `DELETE FROM contact_messages WHERE id = ?`, strings.TrimSpace(id))
	if err != nil {
		return fmt.Errorf("delete contact message: %w", err)
	}
	return requireAffected(result, "delete contact message")
}

// ListPendingDeliveries returns unsent messages that are due.
func (s *Store) ListPendingDeliveries(ctx context.Context, now time.Time, maxAttempts, limit int) ([]storage.ContactMessage, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}
	return s.queryContactMessages(ctx,
		"SELECT "+contactColumnsSQL+` FROM contact_messages
		  WHERE email_sent = 0 AND attempts < ? AND next_attempt_at <= ?
		  ORDER BY created_at ASC, id ASC
		  LIMIT ?`,
		maxAttempts,
		toMillis(now),
		limit,
	)
}

// MarkContactMessageSent records successful delivery.
func (s *Store) MarkContactMessageSent(ctx context.Context, id string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	result, err := s.sqlDB.ExecContext(ctx,
		`UPDATE contact_messages SET email_sent = 1, attempts = attempts + 1, last_error = '' WHERE id = ?`,
		id,
	)
	if err != nil {
		return fmt.Errorf("mark contact message sent: %w", err)
	}
	return requireAffected(result, "mark contact message sent")
}

// RecordDeliveryFailure counts a failed attempt and schedules the next one.
func (s *Store) RecordDeliveryFailure(ctx context.Context, id, lastError string, nextAttemptAt time.Time) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	result, err := s.sqlDB.ExecContext(ctx,
		`UPDATE contact_messages
		    SET attempts = attempts + 1, last_error = ?, next_attempt_at = ?
		  WHERE id = ?`,
		lastError,
		toMillis(nextAttemptAt),
		id,
	)
	if err != nil {
		return fmt.Errorf("record delivery failure: %w", err)
	}
	return requireAffected(result, "record delivery failure")
}

func (s *Store) queryContactMessages(ctx context.Context, query string, args ...any) ([]storage.ContactMessage, error) {
	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list contact messages: %w", err)
	}
	defer rows.Close()
	var messages []storage.ContactMessage
	for rows.Next() {
		message, err := scanContactMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("list contact messages: %w", err)
		}
		messages = append(messages, message)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list contact messages: %w", err)
	}
	return messages, nil
}

func scanContactMessage(row scanner) (storage.ContactMessage, error) {
	var message storage.ContactMessage
	var emailSent, read int
	var nextAttemptAt, createdAt int64
	if err := row.Scan(
		&message.ID,
		&message.Name,
		&message.Email,
		&message.Message,
		&message.RecipientEmail,
		&emailSent,
		&read,
		&message.Attempts,
		&message.LastError,
		&nextAttemptAt,
		&createdAt,
	); err != nil {
		return storage.ContactMessage{}, err
	}
	message.EmailSent = emailSent != 0
	message.Read = read != 0
	message.NextAttemptAt = fromMillis(nextAttemptAt)
	message.CreatedAt = fromMillis(createdAt)
	return message, nil
}
