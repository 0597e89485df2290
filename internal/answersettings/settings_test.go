package answersettings

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/paulexconde/formdeck/internal/models"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		answerType  models.AnswerType
		settings    string
		expectError string // offending field, empty when valid
	}{
		{
			name:       "scalar type with no settings",
			answerType: models.AnswerTypeEmail,
			settings:   "",
		},
		{
			name:       "scalar type with null settings",
			answerType: models.AnswerTypeNumber,
			settings:   "null",
		},
		{
			name:        "scalar type with settings",
			answerType:  models.AnswerTypePhoneNumber,
			settings:    `{"input_type": "anything"}`,
			expectError: "answer_settings",
		},
		{
			name:        "unknown answer type",
			answerType:  models.AnswerType("paragraph"),
			settings:    "",
			expectError: "answer_type",
		},
		{
			name:       "text single line",
			answerType: models.AnswerTypeText,
			settings:   `{"input_type": "single_line"}`,
		},
		{
			name:       "text long text",
			answerType: models.AnswerTypeText,
			settings:   `{"input_type": "long_text"}`,
		},
		{
			name:        "text missing settings",
			answerType:  models.AnswerTypeText,
			settings:    "",
			expectError: "answer_settings",
		},
		{
			name:        "text scalar settings",
			answerType:  models.AnswerTypeText,
			settings:    `"single_line"`,
			expectError: "answer_settings",
		},
		{
			name:        "text bad input type",
			answerType:  models.AnswerTypeText,
			settings:    `{"input_type": "markdown"}`,
			expectError: "answer_settings.input_type",
		},
		{
			name:       "date with input type",
			answerType: models.AnswerTypeDate,
			settings:   `{"input_type": "date_of_birth"}`,
		},
		{
			name:        "date bad input type",
			answerType:  models.AnswerTypeDate,
			settings:    `{"input_type": "year_only"}`,
			expectError: "answer_settings.input_type",
		},
		{
			name:       "address uk only",
			answerType: models.AnswerTypeAddress,
			settings:   `{"input_type": {"uk_address": true, "international_address": false}}`,
		},
		{
			name:        "address neither kind enabled",
			answerType:  models.AnswerTypeAddress,
			settings:    `{"input_type": {"uk_address": false, "international_address": false}}`,
			expectError: "answer_settings.input_type",
		},
		{
			name:       "name full name with title",
			answerType: models.AnswerTypeName,
			settings:   `{"input_type": "full_name", "title_needed": true}`,
		},
		{
			name:        "name bad input type",
			answerType:  models.AnswerTypeName,
			settings:    `{"input_type": "initials"}`,
			expectError: "answer_settings.input_type",
		},
		{
			name:       "selection with options",
			answerType: models.AnswerTypeSelection,
			settings:   `{"only_one_option": true, "title_needed": false, "selection_options": [{"name": "Red"}, {"name": "Blue"}]}`,
		},
		{
			name:        "selection without options",
			answerType:  models.AnswerTypeSelection,
			settings:    `{"only_one_option": true, "selection_options": []}`,
			expectError: "answer_settings.selection_options",
		},
		{
			name:        "selection with blank option name",
			answerType:  models.AnswerTypeSelection,
			settings:    `{"only_one_option": false, "selection_options": [{"name": "  "}]}`,
			expectError: "answer_settings.selection_options",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.answerType, json.RawMessage(tt.settings))

			if tt.expectError == "" {
				if err != nil {
					t.Errorf("expected settings to be valid, got %v", err)
				}
				return
			}

			if err == nil {
				t.Fatal("expected validation error, got none")
			}
			var ve models.ValidationErrors
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationErrors, got %T", err)
			}
			if len(ve[tt.expectError]) == 0 {
				t.Errorf("expected error on %q, got %v", tt.expectError, ve)
			}
		})
	}
}
