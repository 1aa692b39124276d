// Package i18n loads the embedded message catalogs and negotiates locales.
package i18n

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"text/template"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// BaseLocale answers requests no other catalog matches.
const BaseLocale = "en-US"

//go:embed locales/*.yaml
var embedded embed.FS

var defaultBundle = mustLoad(embedded)

type localeFile struct {
	Locale string            `yaml:"locale"`
	Errors map[string]string `yaml:"errors"`
}

// Bundle holds parsed message templates for every locale.
type Bundle struct {
	errors  map[string]map[string]*template.Template
	tags    []language.Tag
	matcher language.Matcher
}

// Default returns the catalogs compiled into the binary.
func Default() *Bundle {
	return defaultBundle
}

// Load reads locales/<locale>.yaml files from fsys. Every template must parse
// and every locale must define the same keys as BaseLocale.
func Load(fsys fs.FS) (*Bundle, error) {
	paths, err := fs.Glob(fsys, "locales/*.yaml")
	if err != nil {
		return nil, fmt.Errorf("glob locales: %w", err)
	}
	sort.Strings(paths)

	b := &Bundle{errors: map[string]map[string]*template.Template{}}
	for _, p := range paths {
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		var file localeFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parse %s: %w", p, err)
		}
		if want := strings.TrimSuffix(path.Base(p), ".yaml"); file.Locale != want {
			return nil, fmt.Errorf("%s: locale %q does not match file name", p, file.Locale)
		}
		templates := make(map[string]*template.Template, len(file.Errors))
		for key, text := range file.Errors {
			tmpl, err := template.New(key).Option("missingkey=zero").Parse(text)
			if err != nil {
				return nil, fmt.Errorf("%s: %s: %w", p, key, err)
			}
			templates[key] = tmpl
		}
		b.errors[file.Locale] = templates
	}

	base, ok := b.errors[BaseLocale]
	if !ok {
		return nil, fmt.Errorf("base locale %s is missing", BaseLocale)
	}
	b.tags = []language.Tag{language.MustParse(BaseLocale)}
	for _, locale := range b.Locales() {
		for key := range base {
			if _, ok := b.errors[locale][key]; !ok {
				return nil, fmt.Errorf("locale %s is missing %s", locale, key)
			}
		}
		if locale == BaseLocale {
			continue
		}
		tag, err := language.Parse(locale)
		if err != nil {
			return nil, fmt.Errorf("locale %s: %w", locale, err)
		}
		b.tags = append(b.tags, tag)
	}
	b.matcher = language.NewMatcher(b.tags)
	return b, nil
}

// Locales lists the loaded locales in sorted order.
func (b *Bundle) Locales() []string {
	out := make([]string, 0, len(b.errors))
	for locale := range b.errors {
		out = append(out, locale)
	}
	sort.Strings(out)
	return out
}

// Match resolves an Accept-Language header to the closest loaded locale.
func (b *Bundle) Match(acceptLanguage string) string {
	desired, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(desired) == 0 {
		return BaseLocale
	}
	_, index, confidence := b.matcher.Match(desired...)
	if confidence == language.No || index < 0 || index >= len(b.tags) {
		return BaseLocale
	}
	return b.tags[index].String()
}

// Error renders the message for an error code. Unknown locales use
// BaseLocale; unknown codes render as the code itself.
func (b *Bundle) Error(locale, code string, data map[string]string) string {
	templates, ok := b.errors[locale]
	if !ok {
		templates = b.errors[BaseLocale]
	}
	tmpl, ok := templates[code]
	if !ok {
		return code
	}
	if data == nil {
		data = map[string]string{}
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return code
	}
	return buf.String()
}

func mustLoad(fsys fs.FS) *Bundle {
	b, err := Load(fsys)
	if err != nil {
		panic(err)
	}
	return b
}
