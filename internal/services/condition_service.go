package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/paulexconde/formdeck/internal/audit"
	"github.com/paulexconde/formdeck/internal/logger"
	"github.com/paulexconde/formdeck/internal/models"
	"github.com/paulexconde/formdeck/internal/pkg/fault"
	"github.com/paulexconde/formdeck/internal/pkg/store"
)

// Handles the conditional edges attached to a routing page.
type ConditionService interface {
	List(ctx context.Context, formID, pageID string) ([]models.RoutingCondition, error)
	Create(ctx context.Context, formID, pageID string, cond *models.RoutingCondition) (*models.RoutingCondition, error)
}

type conditionServiceImpl struct {
	pages      store.Datastorer[models.Page]
	conditions store.Datastorer[models.RoutingCondition]
	sink       audit.Sink
	log        *logger.Logger
}

// Instantiate the ConditionService.
func NewConditionService(
	pages store.Datastorer[models.Page],
	conditions store.Datastorer[models.RoutingCondition],
	sink audit.Sink,
	log *logger.Logger,
) ConditionService {
	return &conditionServiceImpl{
		pages:      pages,
		conditions: conditions,
		sink:       sink,
		log:        log.With("service", "ConditionService"),
	}
}

func (s *conditionServiceImpl) List(ctx context.Context, formID, pageID string) ([]models.RoutingCondition, error) {
	if _, err := s.pageInForm(ctx, formID, pageID); err != nil {
		return nil, err
	}
	return s.conditions.Select(ctx,
		"SELECT * FROM "+store.TableRoutingConditions+" WHERE routing_page_id = $1 ORDER BY created_at ASC", pageID)
}

func (s *conditionServiceImpl) Create(ctx context.Context, formID, pageID string, cond *models.RoutingCondition) (*models.RoutingCondition, error) {
	if _, err := s.pageInForm(ctx, formID, pageID); err != nil {
		return nil, err
	}

	errs := models.ValidationErrors{}
	if cond.GotoPageID != nil && *cond.GotoPageID != "" {
		if _, err := s.pageInForm(ctx, formID, *cond.GotoPageID); err != nil {
			if errors.Is(err, fault.ErrNotFound) {
				errs.Add("goto_page_id", "must belong to the same form")
			} else {
				return nil, err
			}
		}
	}
	if errs.Any() {
		return nil, errs
	}

	cond.ID = uuid.NewString()
	cond.RoutingPageID = pageID
	if cond.CheckPageID == "" {
		cond.CheckPageID = pageID
	}
	now := time.Now().UTC()
	cond.CreatedAt = now
	cond.UpdatedAt = now

	// Inserted alongside the form touch so draft detection sees the edit.
	tx, err := s.conditions.Base().BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx,
		"INSERT INTO "+store.TableRoutingConditions+
			" (id, routing_page_id, check_page_id, goto_page_id, answer_value, skip_to_end, created_at, updated_at)"+
			" VALUES ($1, $2, $3, $4, $5, $6, $7, $8)",
		cond.ID, cond.RoutingPageID, cond.CheckPageID, cond.GotoPageID,
		cond.AnswerValue, cond.SkipToEnd, cond.CreatedAt, cond.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if _, err = tx.ExecContext(ctx,
		"UPDATE "+store.TableForms+" SET updated_at = $1 WHERE id = $2", now, formID,
	); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}

	s.sink.Record(audit.Event{
		RecordKind: audit.KindRoutingCondition,
		RecordID:   cond.ID,
		FormID:     formID,
		Action:     store.ActionCreate,
		Object:     cond,
		OccurredAt: now,
	})
	return cond, nil
}

func (s *conditionServiceImpl) pageInForm(ctx context.Context, formID, pageID string) (*models.Page, error) {
	page, err := s.pages.Get(ctx,
		"SELECT * FROM "+store.TablePages+" WHERE id = $1 AND form_id = $2", pageID, formID)
	if err != nil {
		return nil, err
	}
	return page, nil
}
