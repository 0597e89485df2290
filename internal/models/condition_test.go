package models

import "testing"

func TestHasRoutingError(t *testing.T) {
	destination := "p9"
	empty := ""

	tests := []struct {
		name     string
		cond     RoutingCondition
		expected bool
	}{
		{
			name:     "no destination and no skip",
			cond:     RoutingCondition{ID: "c1"},
			expected: true,
		},
		{
			name:     "empty goto page id",
			cond:     RoutingCondition{ID: "c2", GotoPageID: &empty},
			expected: true,
		},
		{
			name:     "valid goto page",
			cond:     RoutingCondition{ID: "c3", GotoPageID: &destination},
			expected: false,
		},
		{
			name:     "skip to end",
			cond:     RoutingCondition{ID: "c4", SkipToEnd: true},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cond.HasRoutingError(); got != tt.expected {
				t.Errorf("HasRoutingError() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestReindexPages(t *testing.T) {
	pages := []Page{
		{ID: "a", Position: 4},
		{ID: "b", Position: 9},
		{ID: "c", Position: 12},
	}

	ReindexPages(pages)

	for i, p := range pages {
		if p.Position != i+1 {
			t.Errorf("expected page %s at position %d, got %d", p.ID, i+1, p.Position)
		}
	}
}

func TestAnswerTypeValid(t *testing.T) {
	for _, valid := range []AnswerType{
		AnswerTypeNumber, AnswerTypeAddress, AnswerTypeDate, AnswerTypeEmail,
		AnswerTypeNationalInsuranceNumber, AnswerTypePhoneNumber, AnswerTypeSelection,
		AnswerTypeOrganisationName, AnswerTypeText, AnswerTypeName,
	} {
		if !valid.Valid() {
			t.Errorf("expected %q to be a valid answer type", valid)
		}
	}

	if AnswerType("single_line").Valid() {
		t.Error("expected the deprecated flat type to be invalid in the new enumeration")
	}
}
