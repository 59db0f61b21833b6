// Package i18n загружает локализацию интерфейса.
package i18n

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

// Ключи ресурса локализации
const (
	KeyTabs           = "tabs"
	KeyStart          = "start"
	KeyHelp           = "help"
	KeyAwaitingPhoto  = "awaiting_photo"
	KeySendPhoto      = "send_photo"
	KeyProcessing     = "processing"
	KeyCancelled      = "cancelled"
	KeyUnknownCommand = "unknown_command"
	KeyChooseLanguage = "choose_language"
	KeyLanguageSet    = "language_set"
	KeyAnalyzeFailed  = "analyze_failed"
	KeyDescribeFailed = "describe_failed"
	KeySpeechFailed   = "speech_failed"
)

// minTabs вкладка описания сцены и вкладка выбора языка
const minTabs = 2

// RequiredKeys ключи, которые обязаны быть в каждом языке
var RequiredKeys = []string{
	KeyTabs, KeyStart, KeyHelp, KeyAwaitingPhoto, KeySendPhoto, KeyProcessing,
	KeyCancelled, KeyUnknownCommand, KeyChooseLanguage, KeyLanguageSet,
	KeyAnalyzeFailed, KeyDescribeFailed, KeySpeechFailed,
}

// Translations язык -> ключ -> строки.
type Translations struct {
	langs map[string]map[string][]string
}

// Load читает ресурс локализации с диска.
// JSON является подмножеством YAML, поэтому подходят оба формата.
func Load(path string) (*Translations, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read translations: %w", err)
	}
	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("translations %s: %w", path, err)
	}
	return t, nil
}

// Parse разбирает и проверяет ресурс локализации.
func Parse(data []byte) (*Translations, error) {
	langs := make(map[string]map[string][]string)
	if err := yaml.Unmarshal(data, &langs); err != nil {
		return nil, fmt.Errorf("malformed document: %w", err)
	}
	if len(langs) == 0 {
		return nil, fmt.Errorf("no languages defined")
	}

	for lang, keys := range langs {
		missing := lo.Filter(RequiredKeys, func(key string, _ int) bool {
			return len(keys[key]) == 0
		})
		if len(missing) > 0 {
			sort.Strings(missing)
			return nil, fmt.Errorf("language %q is missing keys: %s", lang, strings.Join(missing, ", "))
		}
		if len(keys[KeyTabs]) < minTabs {
			return nil, fmt.Errorf("language %q defines %d tabs, need at least %d", lang, len(keys[KeyTabs]), minTabs)
		}
		for i, tab := range keys[KeyTabs] {
			if strings.TrimSpace(tab) == "" {
				return nil, fmt.Errorf("language %q has an empty tab label at %d", lang, i)
			}
		}
	}

	return &Translations{langs: langs}, nil
}

// Languages возвращает языки в алфавитном порядке
func (t *Translations) Languages() []string {
	langs := lo.Keys(t.langs)
	sort.Strings(langs)
	return langs
}

// Has сообщает, есть ли язык
func (t *Translations) Has(lang string) bool {
	_, ok := t.langs[lang]
	return ok
}

// Tabs возвращает подписи вкладок для языка
func (t *Translations) Tabs(lang string) []string {
	return t.langs[lang][KeyTabs]
}

// Message возвращает текст по ключу; строки склеиваются переводом строки.
func (t *Translations) Message(lang, key string) string {
	return strings.Join(t.langs[lang][key], "\n")
}

// Localizer фиксирует язык по умолчанию поверх Translations.
type Localizer struct {
	*Translations
	fallback string
}

// NewLocalizer проверяет, что язык по умолчанию есть в ресурсе.
func NewLocalizer(t *Translations, fallback string) (*Localizer, error) {
	if !t.Has(fallback) {
		return nil, fmt.Errorf("default language %q is not in translations (have %s)",
			fallback, strings.Join(t.Languages(), ", "))
	}
	return &Localizer{Translations: t, fallback: fallback}, nil
}

// Resolve возвращает lang, если он известен, иначе язык по умолчанию
func (l *Localizer) Resolve(lang string) string {
	if l.Has(lang) {
		return lang
	}
	return l.fallback
}

// Text возвращает сообщение на языке пользователя
func (l *Localizer) Text(lang, key string) string {
	return l.Message(l.Resolve(lang), key)
}

// TabLabels возвращает подписи вкладок на языке пользователя
func (l *Localizer) TabLabels(lang string) []string {
	return l.Tabs(l.Resolve(lang))
}

// Default язык по умолчанию
func (l *Localizer) Default() string {
	return l.fallback
}
