package models

import "time"

// RoutingCondition is a conditional edge from a routing page to a goto
// page (or to the end of the form). The answer on the check page decides
// whether the edge is taken.
type RoutingCondition struct {
	ID            string    `db:"id" json:"id"`
	RoutingPageID string    `db:"routing_page_id" json:"routing_page_id"`
	CheckPageID   string    `db:"check_page_id" json:"check_page_id"`
	GotoPageID    *string   `db:"goto_page_id" json:"goto_page_id,omitempty"`
	AnswerValue   string    `db:"answer_value" json:"answer_value"`
	SkipToEnd     bool      `db:"skip_to_end" json:"skip_to_end"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// HasRoutingError reports a malformed condition: one that names neither a
// destination page nor skip-to-end.
func (c RoutingCondition) HasRoutingError() bool {
	return (c.GotoPageID == nil || *c.GotoPageID == "") && !c.SkipToEnd
}
