package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/louisbranch/storefront/internal/services/storefront/storage"
)

// ListFAQs returns FAQs by display order.
func (s *Store) ListFAQs(ctx context.Context) ([]storage.FAQ, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id, question, answer, order_index, created_at
		   FROM faqs
		  ORDER BY order_index ASC, created_at ASC, id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list faqs: %w", err)
	}
	defer rows.Close()
	var faqs []storage.FAQ
	for rows.Next() {
		faq, err := scanFAQ(rows)
		if err != nil {
			return nil, fmt.Errorf("list faqs: %w", err)
		}
		faqs = append(faqs, faq)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list faqs: %w", err)
	}
	return faqs, nil
}

// GetFAQ returns one FAQ by ID.
func (s *Store) GetFAQ(ctx context.Context, id string) (storage.FAQ, error) {
	if err := s.ready(ctx); err != nil {
		return storage.FAQ{}, err
	}
	faq, err := scanFAQ(s.sqlDB.QueryRowContext(ctx,
		`SELECT id, question, answer, order_index, created_at FROM faqs WHERE id = ?`,
		strings.TrimSpace(id),
	))
	if errors.Is(err, sql.ErrNoRows) {
		return storage.FAQ{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.FAQ{}, fmt.Errorf("get faq: %w", err)
	}
	return faq, nil
}

// PutFAQ inserts or replaces an FAQ by ID.
func (s *Store) PutFAQ(ctx context.Context, faq storage.FAQ) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(faq.ID) == "" {
		return fmt.Errorf("faq id is required")
	}
	createdAt := faq.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.clock()
	}
	if _, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO faqs (id, question, answer, order_index, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   question = excluded.question,
		   answer = excluded.answer,
		   order_index = excluded.order_index`,
		faq.ID,
		faq.Question,
		faq.Answer,
		faq.OrderIndex,
		toMillis(createdAt),
	); err != nil {
		return fmt.Errorf("put faq: %w", err)
	}
	return nil
}

// DeleteFAQ removes one FAQ.
func (s *Store) DeleteFAQ(ctx context.Context, id string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	result, err := s.sqlDB.ExecContext(ctx, `DELETE FROM faqs WHERE id = ?`, strings.TrimSpace(id))
	if err != nil {
		return fmt.Errorf("delete faq: %w", err)
	}
	return requireAffected(result, "delete faq")
}

const settingColumnsSQL = `key, value, category, label, type, description, options_json, updated_at`

// ListSettings returns settings grouped by category then key.
func (s *Store) ListSettings(ctx context.Context) ([]storage.Setting, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		"SELECT "+settingColumnsSQL+" FROM site_settings ORDER BY category ASC, key ASC",
	)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()
	var settings []storage.Setting
	for rows.Next() {
		setting, err := scanSetting(rows)
		if err != nil {
			return nil, fmt.Errorf("list settings: %w", err)
		}
		settings = append(settings, setting)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	return settings, nil
}

// GetSetting returns one setting by key.
func (s *Store) GetSetting(ctx context.Context, key string) (storage.Setting, error) {
	if err := s.ready(ctx); err != nil {
		return storage.Setting{}, err
	}
	setting, err := scanSetting(s.sqlDB.QueryRowContext(ctx,
		"SELECT "+settingColumnsSQL+" FROM site_settings WHERE key = ?",
		strings.TrimSpace(key),
	))
	if errors.Is(err, sql.ErrNoRows) {
		return storage.Setting{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.Setting{}, fmt.Errorf("get setting: %w", err)
	}
	return setting, nil
}

// PutSetting inserts or replaces a setting by key.
func (s *Store) PutSetting(ctx context.Context, setting storage.Setting) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(setting.Key) == "" {
		return fmt.Errorf("setting key is required")
	}
	options := setting.Options
	if options == nil {
		options = []string{}
	}
	optionsJSON, err := json.Marshal(options)
	if err != nil {
		return fmt.Errorf("encode setting options: %w", err)
	}
	updatedAt := setting.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = s.clock()
	}
	if _, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO site_settings (`+settingColumnsSQL+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET
		   value = excluded.value,
		   category = excluded.category,
		   label = excluded.label,
		   type = excluded.type,
		   description = excluded.description,
		   options_json = excluded.options_json,
		   updated_at = excluded.updated_at`,
		setting.Key,
		setting.Value,
		setting.Category,
		setting.Label,
		setting.Type,
		setting.Description,
		string(optionsJSON),
		toMillis(updatedAt),
	); err != nil {
		return fmt.Errorf("put setting: %w", err)
	}
	return nil
}

// DeleteSetting removes one setting by key.
func (s *Store) DeleteSetting(ctx context.Context, key string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	result, err := s.sqlDB.ExecContext(ctx, `DELETE FROM site_settings WHERE key = ?`, strings.TrimSpace(key))
	if err != nil {
		return fmt.Errorf("delete setting: %w", err)
	}
	return requireAffected(result, "delete setting")
}

func scanFAQ(row scanner) (storage.FAQ, error) {
	var faq storage.FAQ
	var createdAt int64
	if err := row.Scan(&faq.ID, &faq.Question, &faq.Answer, &faq.OrderIndex, &createdAt); err != nil {
		return storage.FAQ{}, err
	}
	faq.CreatedAt = fromMillis(createdAt)
	return faq, nil
}

func scanSetting(row scanner) (storage.Setting, error) {
	var setting storage.Setting
	var optionsJSON string
	var updatedAt int64
	if err := row.Scan(
		&setting.Key,
		&setting.Value,
		&setting.Category,
		&setting.Label,
		&setting.Type,
		&setting.Description,
		&optionsJSON,
		&updatedAt,
	); err != nil {
		return storage.Setting{}, err
	}
	if optionsJSON != "" {
		if err := json.Unmarshal([]byte(optionsJSON), &setting.Options); err != nil {
			return storage.Setting{}, fmt.Errorf("decode setting options: %w", err)
		}
	}
	setting.UpdatedAt = fromMillis(updatedAt)
	return setting, nil
}
