package models

import (
	"sort"
	"strings"
	"time"

	"github.com/gosimple/slug"
)

// Form is the aggregate root for one form definition. Pages are loaded
// alongside it and kept in position order.
type Form struct {
	ID                          string     `db:"id" json:"id"`
	Name                        string     `db:"name" json:"name"`
	FormSlug                    string     `db:"form_slug" json:"form_slug"`
	SubmissionEmail             string     `db:"submission_email" json:"submission_email"`
	OrganisationSlug            string     `db:"organisation_slug" json:"organisation_slug"`
	CreatorID                   string     `db:"creator_id" json:"creator_id"`
	PrivacyPolicyURL            string     `db:"privacy_policy_url" json:"privacy_policy_url"`
	SupportEmail                string     `db:"support_email" json:"support_email"`
	SupportPhone                string     `db:"support_phone" json:"support_phone"`
	SupportURL                  string     `db:"support_url" json:"support_url"`
	SupportURLText              string     `db:"support_url_text" json:"support_url_text"`
	WhatHappensNext             string     `db:"what_happens_next" json:"what_happens_next"`
	DeclarationText             string     `db:"declaration_text" json:"declaration_text"`
	QuestionSectionCompleted    bool       `db:"question_section_completed" json:"question_section_completed"`
	DeclarationSectionCompleted bool       `db:"declaration_section_completed" json:"declaration_section_completed"`
	LiveAt                      *time.Time `db:"live_at" json:"live_at,omitempty"`
	CreatedAt                   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt                   time.Time  `db:"updated_at" json:"updated_at"`

	Pages []Page `db:"-" json:"pages,omitempty"`
}

// Normalize recomputes derived fields before a save. The slug is always
// rebuilt from the name, so assigning FormSlug directly never sticks.
func (f *Form) Normalize() {
	f.Name = strings.TrimSpace(f.Name)
	f.FormSlug = slug.Make(f.Name)
}

func (f *Form) Validate() error {
	errs := ValidationErrors{}
	if strings.TrimSpace(f.Name) == "" {
		errs.Add("name", "can't be blank")
	}
	if f.QuestionSectionCompleted && f.HasRoutingErrors() {
		errs.Add("base", "Form has routing validation errors")
	}
	if errs.Any() {
		return errs
	}
	return nil
}

// SortPages orders the loaded pages by position ascending.
func (f *Form) SortPages() {
	sort.SliceStable(f.Pages, func(i, j int) bool {
		return f.Pages[i].Position < f.Pages[j].Position
	})
}

// StartPage returns the id of the first page by position, or "" when the
// form has no pages.
func (f *Form) StartPage() string {
	if len(f.Pages) == 0 {
		return ""
	}
	f.SortPages()
	return f.Pages[0].ID
}

func (f *Form) PageByID(id string) *Page {
	for i := range f.Pages {
		if f.Pages[i].ID == id {
			return &f.Pages[i]
		}
	}
	return nil
}

// NextPageID returns the id of the page immediately following the given
// one in position order. The last page has no next page.
func (f *Form) NextPageID(pageID string) string {
	f.SortPages()
	for i := range f.Pages {
		if f.Pages[i].ID == pageID && i+1 < len(f.Pages) {
			return f.Pages[i+1].ID
		}
	}
	return ""
}

// FillNextPages populates the derived NextPage field on every loaded page.
func (f *Form) FillNextPages() {
	f.SortPages()
	for i := range f.Pages {
		if i+1 < len(f.Pages) {
			f.Pages[i].NextPage = f.Pages[i+1].ID
		} else {
			f.Pages[i].NextPage = ""
		}
	}
}

// HasRoutingErrors reports whether any routing condition on any page fails
// to name a destination. The check is local per condition; it does not do
// reachability or cycle analysis.
func (f *Form) HasRoutingErrors() bool {
	for i := range f.Pages {
		for _, cond := range f.Pages[i].Conditions {
			if cond.HasRoutingError() {
				return true
			}
		}
	}
	return false
}

// MovePageUp swaps the page with its predecessor in the position scope.
// Returns false when the page is already first.
func (f *Form) MovePageUp(pageID string) bool {
	f.SortPages()
	for i := range f.Pages {
		if f.Pages[i].ID == pageID {
			if i == 0 {
				return false
			}
			f.Pages[i-1], f.Pages[i] = f.Pages[i], f.Pages[i-1]
			ReindexPages(f.Pages)
			return true
		}
	}
	return false
}

// MovePageDown swaps the page with its successor in the position scope.
// Returns false when the page is already last.
func (f *Form) MovePageDown(pageID string) bool {
	f.SortPages()
	for i := range f.Pages {
		if f.Pages[i].ID == pageID {
			if i == len(f.Pages)-1 {
				return false
			}
			f.Pages[i], f.Pages[i+1] = f.Pages[i+1], f.Pages[i]
			ReindexPages(f.Pages)
			return true
		}
	}
	return false
}

// HasDraftVersion reports whether the form carries unpublished edits.
// A form that was never made live is always a draft.
func (f *Form) HasDraftVersion(latestLiveAt *time.Time) bool {
	if latestLiveAt == nil {
		return true
	}
	return f.UpdatedAt.After(*latestLiveAt)
}
