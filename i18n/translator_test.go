package i18n

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTranslator_DefaultAndJapanese(t *testing.T) {
	t.Cleanup(Reset)

	// default is en
	if msg := T("required", true, nil, nil); msg == "required" || msg == "" {
		t.Fatalf("expected a human message, got %q", msg)
	}

	SetLanguage("ja")
	assert.NotEqual(t, "required value is missing", T("required", true, nil, nil))

	// unsupported languages fall back to en
	SetLanguage("xx")
	assert.Equal(t, "required value is missing", T("required", true, nil, nil))
}

func TestTranslator_AvailableFieldsListsNames(t *testing.T) {
	t.Cleanup(Reset)
	msg := T("available_fields", []string{"b", "a"}, nil, nil)
	assert.True(t, strings.HasSuffix(msg, "a, b"), msg)
}

func TestSetMessage_Override(t *testing.T) {
	t.Cleanup(Reset)
	SetMessage("min_length", func(_ string, p any, path []string, _ any) string {
		return strings.Join(path, ".") + " is too short"
	})
	assert.Equal(t, "user.name is too short", T("min_length", 3, []string{"user", "name"}, "Al"))

	SetMessage("min_length", nil)
	assert.Equal(t, "length must be at least 3", T("min_length", 3, nil, "Al"))
	assert.Equal(t, `rule "pattern" failed (^a)`, T("pattern", "^a", nil, "b"))
	assert.Equal(t, `rule "pattern" failed`, T("pattern", nil, nil, "b"))
}

type upper struct{}

func (upper) Message(ruleName string, _ any, _ []string, _ any) string { return strings.ToUpper(ruleName) }

func TestSetTranslator(t *testing.T) {
	t.Cleanup(Reset)
	SetTranslator(upper{})
	assert.Equal(t, "TYPE", T("type", "array", nil, nil))
	SetTranslator(nil)
	assert.Equal(t, "invalid type, expected array", T("type", "array", nil, nil))
}
