// Package content manages FAQs and admin-editable site settings.
package content

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/louisbranch/storefront/internal/platform/errors"
	"github.com/louisbranch/storefront/internal/platform/id"
	"github.com/louisbranch/storefront/internal/services/storefront/domain"
	"github.com/louisbranch/storefront/internal/services/storefront/storage"
)

// Setting types.
const (
	TypeText     = "text"
	TypeEmail    = "email"
	TypeNumber   = "number"
	TypeBoolean  = "boolean"
	TypeSelect   = "select"
	TypeTextarea = "textarea"
)

// DefaultCategory groups settings created without one.
const DefaultCategory = "general"

var settingTypes = []string{TypeText, TypeEmail, TypeNumber, TypeBoolean, TypeSelect, TypeTextarea}

var (
	// ErrQuestionEmpty indicates a missing FAQ question.
	ErrQuestionEmpty = apperrors.New(apperrors.CodeFAQQuestionEmpty, "faq question is required")
	// ErrAnswerEmpty indicates a missing FAQ answer.
	ErrAnswerEmpty = apperrors.New(apperrors.CodeFAQAnswerEmpty, "faq answer is required")
	// ErrSettingKeyEmpty indicates a missing setting key.
	ErrSettingKeyEmpty = apperrors.New(apperrors.CodeSettingKeyEmpty, "setting key is required")
)

// FAQInput is the editable part of an FAQ.
type FAQInput struct {
	Question   string
	Answer     string
	OrderIndex int
}

// SettingInput describes a new setting.
type SettingInput struct {
	Key         string
	Value       string
	Category    string
	Label       string
	Type        string
	Description string
	Options     []string
}

// Service manages FAQs and settings.
type Service struct {
	store storage.ContentStore
	now   func() time.Time
	newID func() (string, error)
}

// NewService builds a content service.
func NewService(store storage.ContentStore) *Service {
	return &Service{store: store, now: time.Now, newID: id.NewID}
}

// ListFAQs returns FAQs by display order.
func (s *Service) ListFAQs(ctx context.Context) ([]storage.FAQ, error) {
	faqs, err := s.store.ListFAQs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list faqs: %w", err)
	}
	return faqs, nil
}

// CreateFAQ stores a new FAQ.
func (s *Service) CreateFAQ(ctx context.Context, input FAQInput) (storage.FAQ, error) {
	input, err := normalizeFAQ(input)
	if err != nil {
		return storage.FAQ{}, err
	}
	faqID, err := s.newID()
	if err != nil {
		return storage.FAQ{}, fmt.Errorf("generate faq id: %w", err)
	}
	faq := storage.FAQ{
		ID:         faqID,
		Question:   input.Question,
		Answer:     input.Answer,
		OrderIndex: input.OrderIndex,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.store.PutFAQ(ctx, faq); err != nil {
		return storage.FAQ{}, fmt.Errorf("put faq: %w", err)
	}
	return faq, nil
}

// UpdateFAQ replaces an FAQ's question, answer and position.
func (s *Service) UpdateFAQ(ctx context.Context, faqID string, input FAQInput) (storage.FAQ, error) {
	input, err := normalizeFAQ(input)
	if err != nil {
		return storage.FAQ{}, err
	}
	faq, err := s.store.GetFAQ(ctx, faqID)
	if err != nil {
		return storage.FAQ{}, domain.StorageError(err, "faq")
	}
	faq.Question = input.Question
	faq.Answer = input.Answer
	faq.OrderIndex = input.OrderIndex
	if err := s.store.PutFAQ(ctx, faq); err != nil {
		return storage.FAQ{}, fmt.Errorf("put faq: %w", err)
	}
	return faq, nil
}

// DeleteFAQ removes an FAQ.
func (s *Service) DeleteFAQ(ctx context.Context, faqID string) error {
	return domain.StorageError(s.store.DeleteFAQ(ctx, faqID), "faq")
}

// ListSettings returns settings by category then key.
func (s *Service) ListSettings(ctx context.Context) ([]storage.Setting, error) {
	settings, err := s.store.ListSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	return settings, nil
}

// SettingValue returns the value stored under key. ok is false when the
// setting is absent or blank.
func (s *Service) SettingValue(ctx context.Context, key string) (string, bool, error) {
	setting, err := s.store.GetSetting(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get setting %s: %w", key, err)
	}
	value := strings.TrimSpace(setting.Value)
	return value, value != "", nil
}

// CreateSetting stores a new setting, replacing any setting with the same key.
func (s *Service) CreateSetting(ctx context.Context, input SettingInput) (storage.Setting, error) {
	setting := storage.Setting{
		Key:         strings.TrimSpace(input.Key),
		Value:       strings.TrimSpace(input.Value),
		Category:    strings.TrimSpace(input.Category),
		Label:       strings.TrimSpace(input.Label),
		Type:        strings.ToLower(strings.TrimSpace(input.Type)),
		Description: strings.TrimSpace(input.Description),
		UpdatedAt:   s.now().UTC(),
	}
	for _, option := range input.Options {
		if option = strings.TrimSpace(option); option != "" {
			setting.Options = append(setting.Options, option)
		}
	}
	if setting.Key == "" {
		return storage.Setting{}, ErrSettingKeyEmpty
	}
	if setting.Type == "" {
		setting.Type = TypeText
	}
	if setting.Category == "" {
		setting.Category = DefaultCategory
	}
	if setting.Label == "" {
		setting.Label = setting.Key
	}
	if !slices.Contains(settingTypes, setting.Type) {
		return storage.Setting{}, apperrors.WithMetadata(apperrors.CodeSettingInvalidType, "unknown setting type", map[string]string{"Type": setting.Type})
	}
	if err := ValidateValue(setting, setting.Value); err != nil {
		return storage.Setting{}, err
	}
	if err := s.store.PutSetting(ctx, setting); err != nil {
		return storage.Setting{}, fmt.Errorf("put setting: %w", err)
	}
	return setting, nil
}

// UpdateSettingValue changes the value of an existing setting.
func (s *Service) UpdateSettingValue(ctx context.Context, key, value string) (storage.Setting, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return storage.Setting{}, ErrSettingKeyEmpty
	}
	setting, err := s.store.GetSetting(ctx, key)
	if err != nil {
		return storage.Setting{}, domain.StorageError(err, "setting")
	}
	value = strings.TrimSpace(value)
	if err := ValidateValue(setting, value); err != nil {
		return storage.Setting{}, err
	}
	setting.Value = value
	setting.UpdatedAt = s.now().UTC()
	if err := s.store.PutSetting(ctx, setting); err != nil {
		return storage.Setting{}, fmt.Errorf("put setting: %w", err)
	}
	return setting, nil
}

// DeleteSetting removes a setting by key.
func (s *Service) DeleteSetting(ctx context.Context, key string) error {
	return domain.StorageError(s.store.DeleteSetting(ctx, key), "setting")
}

// ValidateValue checks value against the setting's type. Blank values are
// accepted for every type except select.
func ValidateValue(setting storage.Setting, value string) error {
	invalid := apperrors.WithMetadata(apperrors.CodeSettingInvalidValue, "invalid setting value", map[string]string{"Key": setting.Key})
	if setting.Type == TypeSelect {
		if !slices.Contains(setting.Options, value) {
			return invalid
		}
		return nil
	}
	if value == "" {
		return nil
	}
	switch setting.Type {
	case TypeEmail:
		if !domain.ValidEmail(value) {
			return invalid
		}
	case TypeNumber:
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			return invalid
		}
	case TypeBoolean:
		if value != "true" && value != "false" {
			return invalid
		}
	}
	return nil
}

func normalizeFAQ(input FAQInput) (FAQInput, error) {
	input.Question = strings.TrimSpace(input.Question)
	input.Answer = strings.TrimSpace(input.Answer)
	if input.Question == "" {
		return FAQInput{}, ErrQuestionEmpty
	}
	if input.Answer == "" {
		return FAQInput{}, ErrAnswerEmpty
	}
	return input, nil
}
