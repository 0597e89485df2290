package answersettings

import (
	"encoding/json"

	"github.com/paulexconde/formdeck/internal/models"
)

// Deprecated flat answer types still accepted from legacy callers.
const (
	LegacyTypeSingleLine = "single_line"
	LegacyTypeLongText   = "long_text"
)

// FromLegacy translates a deprecated flat answer type received on a write
// into the current text type with an equivalent input_type setting. Input
// already in the new shape passes through untouched, so the translation
// is idempotent.
func FromLegacy(answerType string, settings json.RawMessage) (models.AnswerType, json.RawMessage) {
	switch answerType {
	case LegacyTypeSingleLine, LegacyTypeLongText:
		translated, _ := json.Marshal(TextSettings{InputType: answerType})
		return models.AnswerTypeText, translated
	default:
		return models.AnswerType(answerType), settings
	}
}

// ToLegacy is the inverse translation applied on display: a text page
// whose input_type is one of the deprecated flat types is shown as that
// flat type with no settings. Everything else is untouched.
func ToLegacy(answerType models.AnswerType, settings json.RawMessage) (string, json.RawMessage) {
	if answerType != models.AnswerTypeText || isEmpty(settings) {
		return string(answerType), settings
	}
	var parsed TextSettings
	if err := json.Unmarshal(settings, &parsed); err != nil {
		return string(answerType), settings
	}
	switch parsed.InputType {
	case LegacyTypeSingleLine, LegacyTypeLongText:
		return parsed.InputType, nil
	default:
		return string(answerType), settings
	}
}
