package services

import (
	"github.com/expr-lang/expr"

	"github.com/paulexconde/formdeck/internal/models"
	"github.com/paulexconde/formdeck/internal/pkg/fault"
)

// RouteDecision is the outcome of evaluating one page's routing against
// an answer: either the id of the next page or the end of the form.
type RouteDecision struct {
	NextPageID  string `json:"next_page_id,omitempty"`
	SkipToEnd   bool   `json:"skip_to_end"`
	ConditionID string `json:"condition_id,omitempty"`
}

// Handles the page-to-page routing graph.
type RoutingService interface {
	// HasRoutingErrors reports whether any condition in the form fails to
	// name a destination. Purely local per condition.
	HasRoutingErrors(form *models.Form) bool
	// ResolveNextPage determines where an answer on the given page leads:
	// the first matching condition wins, otherwise the respondent falls
	// through to the next page in position order.
	ResolveNextPage(form *models.Form, pageID string, answer string) (*RouteDecision, error)
}

type routingServiceImpl struct{}

// Instantiate the RoutingService.
func NewRoutingService() RoutingService {
	return &routingServiceImpl{}
}

func (s *routingServiceImpl) HasRoutingErrors(form *models.Form) bool {
	return form.HasRoutingErrors()
}

func (s *routingServiceImpl) ResolveNextPage(form *models.Form, pageID string, answer string) (*RouteDecision, error) {
	page := form.PageByID(pageID)
	if page == nil {
		return nil, fault.ErrNotFound
	}

	for _, cond := range page.Conditions {
		if !evaluateTrigger(cond.AnswerValue, answer) {
			continue
		}
		if cond.SkipToEnd {
			return &RouteDecision{SkipToEnd: true, ConditionID: cond.ID}, nil
		}
		if cond.GotoPageID != nil && *cond.GotoPageID != "" {
			return &RouteDecision{NextPageID: *cond.GotoPageID, ConditionID: cond.ID}, nil
		}
		// malformed condition; fall through to the default destination
	}

	next := form.NextPageID(pageID)
	return &RouteDecision{NextPageID: next, SkipToEnd: next == ""}, nil
}

// evaluateTrigger decides whether a condition fires for the given answer.
// The trigger may be a boolean expression over {answer}, e.g.
// `answer in ["no", "unsure"]`; anything that does not compile to a
// boolean is treated as a literal value and compared directly.
func evaluateTrigger(trigger string, answer string) bool {
	env := map[string]any{"answer": answer}

	program, err := expr.Compile(trigger, expr.Env(env), expr.AsBool())
	if err != nil {
		return trigger == answer
	}

	output, err := expr.Run(program, env)
	if err != nil {
		return trigger == answer
	}

	match, ok := output.(bool)
	return ok && match
}
