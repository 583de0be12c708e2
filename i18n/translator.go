package i18n

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Formatter renders a human readable message for one failed rule.
// path is the field path of the failure (may be empty for the root) and
// value is the value that failed.
type Formatter func(ruleName string, ruleParams any, path []string, value any) string

// Translator retrieves localized messages for rule names.
type Translator interface {
	Message(ruleName string, ruleParams any, path []string, value any) string
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

func (t dictTranslator) Message(ruleName string, ruleParams any, path []string, value any) string {
	switch t.lang {
	case "ja":
		switch ruleName {
		case "required":
			return "必須フィールドが不足しています"
		case "type":
			return fmt.Sprintf("型が不正です (期待値: %v)", ruleParams)
		case "available_fields":
			return fmt.Sprintf("未定義のフィールドがあります (利用可能: %s)", joinParams(ruleParams))
		case "duplicate_key":
			return "キーが重複しています"
		case "unknown":
			return "値が不正です"
		case "min_length":
			return fmt.Sprintf("長さは%v以上である必要があります", ruleParams)
		case "max_length":
			return fmt.Sprintf("長さは%v以下である必要があります", ruleParams)
		case "min_value":
			return fmt.Sprintf("値は%v以上である必要があります", ruleParams)
		case "max_value":
			return fmt.Sprintf("値は%v以下である必要があります", ruleParams)
		case "not_empty":
			return "値が空です"
		case "eq":
			return fmt.Sprintf("値は%vである必要があります", ruleParams)
		}
	default: // "en"
		switch ruleName {
		case "required":
			return "required value is missing"
		case "type":
			return fmt.Sprintf("invalid type, expected %v", ruleParams)
		case "available_fields":
			return fmt.Sprintf("unexpected field, available fields: %s", joinParams(ruleParams))
		case "duplicate_key":
			return "duplicate key"
		case "unknown":
			return "invalid value"
		case "min_length":
			return fmt.Sprintf("length must be at least %v", ruleParams)
		case "max_length":
			return fmt.Sprintf("length must be at most %v", ruleParams)
		case "min_value":
			return fmt.Sprintf("value must be at least %v", ruleParams)
		case "max_value":
			return fmt.Sprintf("value must be at most %v", ruleParams)
		case "not_empty":
			return "value must not be empty"
		case "eq":
			return fmt.Sprintf("value must equal %v", ruleParams)
		}
	}
	return Default(ruleName, ruleParams, path, value)
}

// Default is the fallback formatter for rule names without a dictionary
// entry or override.
func Default(ruleName string, ruleParams any, _ []string, _ any) string {
	if ruleParams == nil {
		return fmt.Sprintf("rule %q failed", ruleName)
	}
	return fmt.Sprintf("rule %q failed (%v)", ruleName, ruleParams)
}

func joinParams(p any) string {
	switch v := p.(type) {
	case []string:
		s := append([]string(nil), v...)
		sort.Strings(s)
		return strings.Join(s, ", ")
	case []any:
		parts := make([]string, 0, len(v))
		for _, it := range v {
			parts = append(parts, fmt.Sprint(it))
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(p)
	}
}

var (
	mu                sync.RWMutex
	currentTranslator Translator = dictTranslator{lang: "en"}
	overrides                    = map[string]Formatter{}
)

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if lang != "ja" {
		lang = "en"
	}
	mu.Lock()
	currentTranslator = dictTranslator{lang: lang}
	mu.Unlock()
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version).
func SetTranslator(tr Translator) {
	mu.Lock()
	defer mu.Unlock()
	if tr == nil {
		currentTranslator = dictTranslator{lang: "en"}
		return
	}
	currentTranslator = tr
}

// SetMessage overrides the message for one rule name. A nil formatter
// removes the override.
func SetMessage(ruleName string, f Formatter) {
	mu.Lock()
	defer mu.Unlock()
	if f == nil {
		delete(overrides, ruleName)
		return
	}
	overrides[ruleName] = f
}

// Reset drops all overrides and restores the English dictionary.
func Reset() {
	mu.Lock()
	currentTranslator = dictTranslator{lang: "en"}
	overrides = map[string]Formatter{}
	mu.Unlock()
}

// T fetches a message using the per-rule override when present, otherwise the
// current Translator.
func T(ruleName string, ruleParams any, path []string, value any) string {
	mu.RLock()
	f, ok := overrides[ruleName]
	tr := currentTranslator
	mu.RUnlock()
	if ok {
		return f(ruleName, ruleParams, path, value)
	}
	return tr.Message(ruleName, ruleParams, path, value)
}
