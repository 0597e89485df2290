package answersettings

import (
	"encoding/json"
	"testing"

	"github.com/paulexconde/formdeck/internal/models"
)

func TestFromLegacy(t *testing.T) {
	answerType, settings := FromLegacy("single_line", nil)

	if answerType != models.AnswerTypeText {
		t.Errorf("expected text, got %q", answerType)
	}
	var parsed TextSettings
	if err := json.Unmarshal(settings, &parsed); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if parsed.InputType != "single_line" {
		t.Errorf("expected input_type single_line, got %q", parsed.InputType)
	}
}

func TestFromLegacy_NewFormatPassesThrough(t *testing.T) {
	original := json.RawMessage(`{"input_type": "other"}`)

	answerType, settings := FromLegacy("text", original)

	if answerType != models.AnswerTypeText {
		t.Errorf("expected text, got %q", answerType)
	}
	if string(settings) != string(original) {
		t.Errorf("expected settings untouched, got %s", settings)
	}
}

func TestToLegacy(t *testing.T) {
	answerType, settings := ToLegacy(models.AnswerTypeText, json.RawMessage(`{"input_type": "long_text"}`))

	if answerType != "long_text" {
		t.Errorf("expected long_text, got %q", answerType)
	}
	if settings != nil {
		t.Errorf("expected nil settings, got %s", settings)
	}
}

func TestToLegacy_OtherInputTypeStaysText(t *testing.T) {
	original := json.RawMessage(`{"input_type": "other"}`)

	answerType, settings := ToLegacy(models.AnswerTypeText, original)

	if answerType != "text" {
		t.Errorf("expected text, got %q", answerType)
	}
	if string(settings) != string(original) {
		t.Errorf("expected settings untouched, got %s", settings)
	}
}

func TestLegacyRoundTrip(t *testing.T) {
	for _, flat := range []string{"single_line", "long_text"} {
		answerType, settings := FromLegacy(flat, nil)

		// already-translated input is a no-op
		again, againSettings := FromLegacy(string(answerType), settings)
		if again != answerType || string(againSettings) != string(settings) {
			t.Errorf("expected FromLegacy to be idempotent for %q", flat)
		}

		back, backSettings := ToLegacy(answerType, settings)
		if back != flat {
			t.Errorf("expected round trip back to %q, got %q", flat, back)
		}
		if backSettings != nil {
			t.Errorf("expected nil settings after round trip, got %s", backSettings)
		}
	}
}
