package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// FormSnapshot is the canonical serialized view of a form, used both for
// the current-draft view and for the blob captured by a make-live.
type FormSnapshot struct {
	FormID                      string     `json:"form_id"`
	Name                        string     `json:"name"`
	FormSlug                    string     `json:"form_slug"`
	SubmissionEmail             string     `json:"submission_email"`
	OrganisationSlug            string     `json:"organisation_slug"`
	CreatorID                   string     `json:"creator_id"`
	PrivacyPolicyURL            string     `json:"privacy_policy_url"`
	SupportEmail                string     `json:"support_email"`
	SupportPhone                string     `json:"support_phone"`
	SupportURL                  string     `json:"support_url"`
	SupportURLText              string     `json:"support_url_text"`
	WhatHappensNext             string     `json:"what_happens_next"`
	DeclarationText             string     `json:"declaration_text"`
	QuestionSectionCompleted    bool       `json:"question_section_completed"`
	DeclarationSectionCompleted bool       `json:"declaration_section_completed"`
	LiveAt                      *time.Time `json:"live_at,omitempty"`
	StartPage                   string     `json:"start_page,omitempty"`
	CreatedAt                   time.Time  `json:"created_at"`
	UpdatedAt                   time.Time  `json:"updated_at"`

	Pages     []PageSnapshot `json:"pages"`
	PageOrder []string       `json:"page_order"`
}

// PageSnapshot is a page as it appears inside a form snapshot: the derived
// next_page is included, positional internals are not.
type PageSnapshot struct {
	ID                string         `json:"id"`
	QuestionText      string         `json:"question_text"`
	QuestionShortName string         `json:"question_short_name"`
	HintText          string         `json:"hint_text"`
	AnswerType        AnswerType     `json:"answer_type"`
	AnswerSettings    types.JSONText `json:"answer_settings,omitempty"`
	IsOptional        bool           `json:"is_optional"`
	NextPage          string         `json:"next_page,omitempty"`
}

// Snapshot serializes the form and its pages in position order. When
// liveAt is given it overrides the persisted value, which lets one method
// build both the draft view and the about-to-publish view without
// touching stored state.
func (f *Form) Snapshot(liveAt *time.Time) FormSnapshot {
	f.FillNextPages()

	snap := FormSnapshot{
		FormID:                      f.ID,
		Name:                        f.Name,
		FormSlug:                    f.FormSlug,
		SubmissionEmail:             f.SubmissionEmail,
		OrganisationSlug:            f.OrganisationSlug,
		CreatorID:                   f.CreatorID,
		PrivacyPolicyURL:            f.PrivacyPolicyURL,
		SupportEmail:                f.SupportEmail,
		SupportPhone:                f.SupportPhone,
		SupportURL:                  f.SupportURL,
		SupportURLText:              f.SupportURLText,
		WhatHappensNext:             f.WhatHappensNext,
		DeclarationText:             f.DeclarationText,
		QuestionSectionCompleted:    f.QuestionSectionCompleted,
		DeclarationSectionCompleted: f.DeclarationSectionCompleted,
		LiveAt:                      f.LiveAt,
		StartPage:                   f.StartPage(),
		CreatedAt:                   f.CreatedAt,
		UpdatedAt:                   f.UpdatedAt,
		Pages:                       make([]PageSnapshot, 0, len(f.Pages)),
		PageOrder:                   make([]string, 0, len(f.Pages)),
	}
	if liveAt != nil {
		snap.LiveAt = liveAt
	}

	for i := range f.Pages {
		p := &f.Pages[i]
		snap.Pages = append(snap.Pages, PageSnapshot{
			ID:                p.ID,
			QuestionText:      p.QuestionText,
			QuestionShortName: p.QuestionShortName,
			HintText:          p.HintText,
			AnswerType:        p.AnswerType,
			AnswerSettings:    p.AnswerSettings,
			IsOptional:        p.IsOptional,
			NextPage:          p.NextPage,
		})
		snap.PageOrder = append(snap.PageOrder, p.ID)
	}
	return snap
}
