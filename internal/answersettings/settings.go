// Package answersettings validates the structured settings attached to a
// page against its answer type, and translates the deprecated flat answer
// types to and from the current shape.
package answersettings

import (
	"encoding/json"
	"strings"

	"github.com/paulexconde/formdeck/internal/models"
)

// Text input types.
const (
	InputTypeSingleLine = "single_line"
	InputTypeLongText   = "long_text"
	InputTypeOther      = "other"
)

// Date input types.
const (
	InputTypeDateOfBirth = "date_of_birth"
	InputTypeOtherDate   = "other_date"
)

// Name input types.
const (
	InputTypeFullName               = "full_name"
	InputTypeFirstAndLastName       = "first_and_last_name"
	InputTypeFirstMiddleAndLastName = "first_middle_and_last_name"
)

type TextSettings struct {
	InputType string `json:"input_type"`
}

type DateSettings struct {
	InputType string `json:"input_type"`
}

type AddressInputType struct {
	UKAddress            bool `json:"uk_address"`
	InternationalAddress bool `json:"international_address"`
}

type AddressSettings struct {
	InputType AddressInputType `json:"input_type"`
}

type NameSettings struct {
	InputType   string `json:"input_type"`
	TitleNeeded bool   `json:"title_needed"`
}

type SelectionOption struct {
	Name string `json:"name"`
}

type SelectionSettings struct {
	OnlyOneOption    bool              `json:"only_one_option"`
	TitleNeeded      bool              `json:"title_needed"`
	SelectionOptions []SelectionOption `json:"selection_options"`
}

var textInputTypes = map[string]struct{}{
	InputTypeSingleLine: {},
	InputTypeLongText:   {},
	InputTypeOther:      {},
}

var dateInputTypes = map[string]struct{}{
	InputTypeDateOfBirth: {},
	InputTypeOtherDate:   {},
}

var nameInputTypes = map[string]struct{}{
	InputTypeFullName:               {},
	InputTypeFirstAndLastName:       {},
	InputTypeFirstMiddleAndLastName: {},
}

// Validate checks that the answer type is known and that the settings
// carry the shape that type requires. Scalar types take no settings at
// all; the structured types must be a JSON mapping with their required
// keys present.
func Validate(answerType models.AnswerType, settings json.RawMessage) error {
	errs := models.ValidationErrors{}
	if !answerType.Valid() {
		errs.Add("answer_type", "is not included in the list")
		return errs
	}

	switch answerType {
	case models.AnswerTypeText:
		validateText(settings, errs)
	case models.AnswerTypeDate:
		validateDate(settings, errs)
	case models.AnswerTypeAddress:
		validateAddress(settings, errs)
	case models.AnswerTypeName:
		validateName(settings, errs)
	case models.AnswerTypeSelection:
		validateSelection(settings, errs)
	default:
		if !isEmpty(settings) {
			errs.Add("answer_settings", "must be blank")
		}
	}

	if errs.Any() {
		return errs
	}
	return nil
}

func validateText(settings json.RawMessage, errs models.ValidationErrors) {
	var parsed TextSettings
	if !decodeMapping(settings, &parsed, errs) {
		return
	}
	if _, ok := textInputTypes[parsed.InputType]; !ok {
		errs.Add("answer_settings.input_type", "is not included in the list")
	}
}

func validateDate(settings json.RawMessage, errs models.ValidationErrors) {
	var parsed DateSettings
	if !decodeMapping(settings, &parsed, errs) {
		return
	}
	if _, ok := dateInputTypes[parsed.InputType]; !ok {
		errs.Add("answer_settings.input_type", "is not included in the list")
	}
}

func validateAddress(settings json.RawMessage, errs models.ValidationErrors) {
	var parsed AddressSettings
	if !decodeMapping(settings, &parsed, errs) {
		return
	}
	if !parsed.InputType.UKAddress && !parsed.InputType.InternationalAddress {
		errs.Add("answer_settings.input_type", "at least one address kind must be enabled")
	}
}

func validateName(settings json.RawMessage, errs models.ValidationErrors) {
	var parsed NameSettings
	if !decodeMapping(settings, &parsed, errs) {
		return
	}
	if _, ok := nameInputTypes[parsed.InputType]; !ok {
		errs.Add("answer_settings.input_type", "is not included in the list")
	}
}

func validateSelection(settings json.RawMessage, errs models.ValidationErrors) {
	var parsed SelectionSettings
	if !decodeMapping(settings, &parsed, errs) {
		return
	}
	if len(parsed.SelectionOptions) == 0 {
		errs.Add("answer_settings.selection_options", "can't be blank")
		return
	}
	for _, opt := range parsed.SelectionOptions {
		if strings.TrimSpace(opt.Name) == "" {
			errs.Add("answer_settings.selection_options", "option names can't be blank")
			return
		}
	}
}

// decodeMapping insists the settings are a JSON object and decodes them
// into out. Reports false when validation cannot continue.
func decodeMapping(settings json.RawMessage, out any, errs models.ValidationErrors) bool {
	if isEmpty(settings) {
		errs.Add("answer_settings", "can't be blank")
		return false
	}
	var shape map[string]json.RawMessage
	if err := json.Unmarshal(settings, &shape); err != nil {
		errs.Add("answer_settings", "must be a mapping")
		return false
	}
	if err := json.Unmarshal(settings, out); err != nil {
		errs.Add("answer_settings", "must be a mapping")
		return false
	}
	return true
}

func isEmpty(settings json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(settings))
	return trimmed == "" || trimmed == "null"
}
