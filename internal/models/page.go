package models

import (
	"strings"
	"time"

	"github.com/jmoiron/sqlx/types"
)

// AnswerType tags the kind of answer a page collects. The settings shape
// depends on the tag; see the answersettings package.
type AnswerType string

const (
	AnswerTypeNumber                  AnswerType = "number"
	AnswerTypeAddress                 AnswerType = "address"
	AnswerTypeDate                    AnswerType = "date"
	AnswerTypeEmail                   AnswerType = "email"
	AnswerTypeNationalInsuranceNumber AnswerType = "national_insurance_number"
	AnswerTypePhoneNumber             AnswerType = "phone_number"
	AnswerTypeSelection               AnswerType = "selection"
	AnswerTypeOrganisationName        AnswerType = "organisation_name"
	AnswerTypeText                    AnswerType = "text"
	AnswerTypeName                    AnswerType = "name"
)

var answerTypes = map[AnswerType]struct{}{
	AnswerTypeNumber:                  {},
	AnswerTypeAddress:                 {},
	AnswerTypeDate:                    {},
	AnswerTypeEmail:                   {},
	AnswerTypeNationalInsuranceNumber: {},
	AnswerTypePhoneNumber:             {},
	AnswerTypeSelection:               {},
	AnswerTypeOrganisationName:        {},
	AnswerTypeText:                    {},
	AnswerTypeName:                    {},
}

func (t AnswerType) Valid() bool {
	_, ok := answerTypes[t]
	return ok
}

// Page is one step of a form. Position is a dense 1-based sequence scoped
// to the owning form; NextPage is derived from it and never persisted.
type Page struct {
	ID                string          `db:"id" json:"id"`
	FormID            string          `db:"form_id" json:"-"`
	QuestionText      string          `db:"question_text" json:"question_text"`
	QuestionShortName string          `db:"question_short_name" json:"question_short_name"`
	HintText          string          `db:"hint_text" json:"hint_text"`
	AnswerType        AnswerType      `db:"answer_type" json:"answer_type"`
	AnswerSettings    types.JSONText  `db:"answer_settings" json:"answer_settings,omitempty"`
	IsOptional        bool            `db:"is_optional" json:"is_optional"`
	Position          int             `db:"position" json:"-"`
	CreatedAt         time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time       `db:"updated_at" json:"updated_at"`

	NextPage   string             `db:"-" json:"next_page,omitempty"`
	Conditions []RoutingCondition `db:"-" json:"routing_conditions,omitempty"`
}

func (p *Page) Validate() error {
	errs := ValidationErrors{}
	if strings.TrimSpace(p.QuestionText) == "" {
		errs.Add("question_text", "can't be blank")
	}
	if !p.AnswerType.Valid() {
		errs.Add("answer_type", "is not included in the list")
	}
	if errs.Any() {
		return errs
	}
	return nil
}

// ReindexPages rewrites positions as a dense 1-based sequence preserving
// the slice order.
func ReindexPages(pages []Page) {
	for i := range pages {
		pages[i].Position = i + 1
	}
}
