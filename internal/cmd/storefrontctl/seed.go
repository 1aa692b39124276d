package storefrontctl

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/louisbranch/storefront/internal/services/storefront/domain/catalog"
	"github.com/louisbranch/storefront/internal/services/storefront/domain/content"
	"github.com/louisbranch/storefront/internal/services/storefront/storage"
	"github.com/louisbranch/storefront/internal/services/storefront/storage/sqlite"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// SeedFile is the YAML document accepted by the seed command. Records are
// keyed by ID (or key, for settings) so reseeding updates in place.
type SeedFile struct {
	Categories []SeedCategory `yaml:"categories"`
	Products   []SeedProduct  `yaml:"products"`
	FAQs       []SeedFAQ      `yaml:"faqs"`
	Settings   []SeedSetting  `yaml:"settings"`
}

// SeedCategory is one category entry.
type SeedCategory struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	ImageURL    string `yaml:"image_url"`
}

// SeedProduct is one product entry. Category may be a category ID or slug.
type SeedProduct struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	PriceCents  int64  `yaml:"price_cents"`
	ImageURL    string `yaml:"image_url"`
	Category    string `yaml:"category"`
	Stock       int    `yaml:"stock"`
}

// SeedFAQ is one FAQ entry.
type SeedFAQ struct {
	ID         string `yaml:"id"`
	Question   string `yaml:"question"`
	Answer     string `yaml:"answer"`
	OrderIndex int    `yaml:"order_index"`
}

// SeedSetting is one site setting entry.
type SeedSetting struct {
	Key         string   `yaml:"key"`
	Value       string   `yaml:"value"`
	Category    string   `yaml:"category"`
	Label       string   `yaml:"label"`
	Type        string   `yaml:"type"`
	Description string   `yaml:"description"`
	Options     []string `yaml:"options"`
}

// SeedResult counts upserted records.
type SeedResult struct {
	Categories int
	Products   int
	FAQs       int
	Settings   int
}

// ParseSeed decodes a seed document, rejecting unknown fields.
func ParseSeed(r io.Reader) (SeedFile, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	var file SeedFile
	if err := decoder.Decode(&file); err != nil {
		if err == io.EOF {
			return SeedFile{}, nil
		}
		return SeedFile{}, fmt.Errorf("decode seed: %w", err)
	}
	return file, nil
}

// ApplySeed upserts every record in file.
func ApplySeed(ctx context.Context, store storage.Store, file SeedFile) (SeedResult, error) {
	var result SeedResult
	now := time.Now().UTC()
	slugs := map[string]string{}
	existing, err := store.ListCategories(ctx)
	if err != nil {
		return result, fmt.Errorf("list categories: %w", err)
	}
	for _, category := range existing {
		slugs[category.Slug] = category.ID
	}

	for _, entry := range file.Categories {
		name := strings.TrimSpace(entry.Name)
		if strings.TrimSpace(entry.ID) == "" || name == "" {
			return result, fmt.Errorf("category entries need an id and a name")
		}
		category := storage.Category{
			ID:          strings.TrimSpace(entry.ID),
			Name:        name,
			Slug:        catalog.Slugify(name),
			Description: strings.TrimSpace(entry.Description),
			ImageURL:    strings.TrimSpace(entry.ImageURL),
			CreatedAt:   now,
		}
		if err := store.PutCategory(ctx, category); err != nil {
			return result, fmt.Errorf("category %s: %w", category.ID, err)
		}
		slugs[category.Slug] = category.ID
		result.Categories++
	}

	for _, entry := range file.Products {
		name := strings.TrimSpace(entry.Name)
		if strings.TrimSpace(entry.ID) == "" || name == "" {
			return result, fmt.Errorf("product entries need an id and a name")
		}
		if entry.PriceCents < 0 || entry.Stock < 0 {
			return result, fmt.Errorf("product %s: price and stock must be zero or greater", entry.ID)
		}
		categoryID := strings.TrimSpace(entry.Category)
		if id, ok := slugs[categoryID]; ok {
			categoryID = id
		}
		product := storage.Product{
			ID:          strings.TrimSpace(entry.ID),
			Name:        name,
			Description: strings.TrimSpace(entry.Description),
			PriceCents:  entry.PriceCents,
			ImageURL:    strings.TrimSpace(entry.ImageURL),
			CategoryID:  categoryID,
			Stock:       entry.Stock,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := store.PutProduct(ctx, product); err != nil {
			return result, fmt.Errorf("product %s: %w", product.ID, err)
		}
		result.Products++
	}

	for _, entry := range file.FAQs {
		if strings.TrimSpace(entry.ID) == "" || strings.TrimSpace(entry.Question) == "" || strings.TrimSpace(entry.Answer) == "" {
			return result, fmt.Errorf("faq entries need an id, a question and an answer")
		}
		faq := storage.FAQ{
			ID:         strings.TrimSpace(entry.ID),
			Question:   strings.TrimSpace(entry.Question),
			Answer:     strings.TrimSpace(entry.Answer),
			OrderIndex: entry.OrderIndex,
			CreatedAt:  now,
		}
		if err := store.PutFAQ(ctx, faq); err != nil {
			return result, fmt.Errorf("faq %s: %w", faq.ID, err)
		}
		result.FAQs++
	}

	for _, entry := range file.Settings {
		setting := storage.Setting{
			Key:         strings.TrimSpace(entry.Key),
			Value:       entry.Value,
			Category:    strings.TrimSpace(entry.Category),
			Label:       strings.TrimSpace(entry.Label),
			Type:        strings.ToLower(strings.TrimSpace(entry.Type)),
			Description: strings.TrimSpace(entry.Description),
			Options:     entry.Options,
			UpdatedAt:   now,
		}
		if setting.Key == "" {
			return result, fmt.Errorf("setting entries need a key")
		}
		if setting.Type == "" {
			setting.Type = content.TypeText
		}
		if setting.Category == "" {
			setting.Category = content.DefaultCategory
		}
		if setting.Label == "" {
			setting.Label = setting.Key
		}
		if err := content.ValidateValue(setting, setting.Value); err != nil {
			return result, fmt.Errorf("setting %s: %w", setting.Key, err)
		}
		if err := store.PutSetting(ctx, setting); err != nil {
			return result, fmt.Errorf("setting %s: %w", setting.Key, err)
		}
		result.Settings++
	}
	return result, nil
}

func newSeedCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed <file.yaml>",
		Short: "Upsert categories, products, FAQs and settings from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			file, err := ParseSeed(f)
			if err != nil {
				return err
			}

			store, err := sqlite.Open(opts.DBPath)
			if err != nil {
				return err
			}
			defer store.Close()

			result, err := ApplySeed(cmd.Context(), store, file)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d categories, %d products, %d faqs, %d settings\n",
				result.Categories, result.Products, result.FAQs, result.Settings)
			return nil
		},
	}
}
