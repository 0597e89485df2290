package services

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/paulexconde/formdeck/internal/models"
)

func publishableForm() *models.Form {
	created := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	return &models.Form{
		ID:        "f1",
		Name:      "Apply for a juggling licence",
		FormSlug:  "apply-for-a-juggling-licence",
		CreatedAt: created,
		UpdatedAt: created,
		Pages: []models.Page{
			{ID: "p1", FormID: "f1", QuestionText: "What is your name?", AnswerType: models.AnswerTypeName, Position: 1},
			{ID: "p2", FormID: "f1", QuestionText: "How many balls?", AnswerType: models.AnswerTypeNumber, Position: 2},
		},
	}
}

func TestNewMadeLiveForm_StampsOneInstant(t *testing.T) {
	form := publishableForm()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	madeLive, err := newMadeLiveForm(form, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !madeLive.CreatedAt.Equal(now) {
		t.Errorf("made-live created_at = %v, want %v", madeLive.CreatedAt, now)
	}
	if !form.UpdatedAt.Equal(now) {
		t.Errorf("form updated_at = %v, want %v", form.UpdatedAt, now)
	}
	if madeLive.FormID != "f1" {
		t.Errorf("unexpected form id %q", madeLive.FormID)
	}

	var snap models.FormSnapshot
	if err := json.Unmarshal(madeLive.JSONFormBlob, &snap); err != nil {
		t.Fatalf("blob did not unmarshal: %v", err)
	}
	if snap.LiveAt == nil || !snap.LiveAt.Equal(now) {
		t.Errorf("snapshot live_at = %v, want %v", snap.LiveAt, now)
	}
	if !snap.UpdatedAt.Equal(now) {
		t.Errorf("snapshot updated_at = %v, want %v", snap.UpdatedAt, now)
	}
	if snap.StartPage != "p1" {
		t.Errorf("snapshot start_page = %q, want p1", snap.StartPage)
	}
	if len(snap.PageOrder) != 2 || snap.PageOrder[0] != "p1" || snap.PageOrder[1] != "p2" {
		t.Errorf("unexpected page_order %v", snap.PageOrder)
	}
}

func TestNewMadeLiveForm_RoutingErrorsAbort(t *testing.T) {
	form := publishableForm()
	form.QuestionSectionCompleted = true
	form.Pages[0].Conditions = []models.RoutingCondition{
		{ID: "c1", RoutingPageID: "p1", CheckPageID: "p1", AnswerValue: "no"},
	}
	before := form.UpdatedAt

	_, err := newMadeLiveForm(form, time.Now().UTC())

	var ve models.ValidationErrors
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation errors, got %v", err)
	}
	if _, ok := ve["base"]; !ok {
		t.Errorf("expected a base-level error, got %v", ve)
	}
	if !form.UpdatedAt.Equal(before) {
		t.Error("expected form timestamps untouched after a rejected publish")
	}
}
