package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/paulexconde/formdeck/internal/answersettings"
	"github.com/paulexconde/formdeck/internal/audit"
	"github.com/paulexconde/formdeck/internal/logger"
	"github.com/paulexconde/formdeck/internal/models"
	"github.com/paulexconde/formdeck/internal/pkg/fault"
	"github.com/paulexconde/formdeck/internal/pkg/store"
)

// Handles pages within a form's position scope. Every write locks the
// owning form row so concurrent reordering of siblings serializes, and
// touches the form so draft detection stays correct.
type PageService interface {
	List(ctx context.Context, formID string) ([]models.Page, error)
	Get(ctx context.Context, formID, pageID string) (*models.Page, error)
	Create(ctx context.Context, formID string, page *models.Page) (*models.Page, error)
	Update(ctx context.Context, formID string, page *models.Page) (*models.Page, error)
	Delete(ctx context.Context, formID, pageID string) error
	MoveUp(ctx context.Context, formID, pageID string) error
	MoveDown(ctx context.Context, formID, pageID string) error
}

type pageServiceImpl struct {
	forms      store.Datastorer[models.Form]
	pages      store.Datastorer[models.Page]
	conditions store.Datastorer[models.RoutingCondition]
	sink       audit.Sink
	log        *logger.Logger
}

// Instantiate the PageService.
func NewPageService(
	forms store.Datastorer[models.Form],
	pages store.Datastorer[models.Page],
	conditions store.Datastorer[models.RoutingCondition],
	sink audit.Sink,
	log *logger.Logger,
) PageService {
	return &pageServiceImpl{
		forms:      forms,
		pages:      pages,
		conditions: conditions,
		sink:       sink,
		log:        log.With("service", "PageService"),
	}
}

func (s *pageServiceImpl) List(ctx context.Context, formID string) ([]models.Page, error) {
	if _, err := s.forms.Get(ctx, "SELECT * FROM "+store.TableForms+" WHERE id = $1", formID); err != nil {
		return nil, err
	}
	pages, err := s.pages.Select(ctx,
		"SELECT * FROM "+store.TablePages+" WHERE form_id = $1 ORDER BY position ASC", formID)
	if err != nil {
		return nil, err
	}
	fillNextPages(pages)
	return pages, nil
}

func (s *pageServiceImpl) Get(ctx context.Context, formID, pageID string) (*models.Page, error) {
	pages, err := s.List(ctx, formID)
	if err != nil {
		return nil, err
	}
	for i := range pages {
		if pages[i].ID == pageID {
			page := pages[i]
			conditions, err := s.conditions.Select(ctx,
				"SELECT * FROM "+store.TableRoutingConditions+" WHERE routing_page_id = $1 ORDER BY created_at ASC", pageID)
			if err != nil {
				return nil, err
			}
			page.Conditions = conditions
			return &page, nil
		}
	}
	return nil, fault.ErrNotFound
}

func (s *pageServiceImpl) Create(ctx context.Context, formID string, page *models.Page) (*models.Page, error) {
	if err := validatePage(page); err != nil {
		return nil, err
	}

	page.ID = uuid.NewString()
	page.FormID = formID
	if len(page.AnswerSettings) == 0 {
		page.AnswerSettings = types.JSONText("null")
	}
	now := time.Now().UTC()
	page.CreatedAt = now
	page.UpdatedAt = now

	err := s.withFormLock(ctx, formID, func(tx *sqlx.Tx) error {
		var count int
		if err := tx.GetContext(ctx, &count,
			"SELECT COUNT(*) FROM "+store.TablePages+" WHERE form_id = $1", formID); err != nil {
			return err
		}
		page.Position = count + 1

		if _, err := tx.ExecContext(ctx,
			"INSERT INTO "+store.TablePages+
				" (id, form_id, question_text, question_short_name, hint_text, answer_type, answer_settings, is_optional, position, created_at, updated_at)"+
				" VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)",
			page.ID, page.FormID, page.QuestionText, page.QuestionShortName, page.HintText,
			page.AnswerType, page.AnswerSettings, page.IsOptional, page.Position, page.CreatedAt, page.UpdatedAt,
		); err != nil {
			return err
		}

		return s.touchForm(ctx, tx, formID, now, true)
	})
	if err != nil {
		return nil, err
	}

	s.recordPage(page, store.ActionCreate, now)
	return page, nil
}

func (s *pageServiceImpl) Update(ctx context.Context, formID string, page *models.Page) (*models.Page, error) {
	if err := validatePage(page); err != nil {
		return nil, err
	}

	if len(page.AnswerSettings) == 0 {
		page.AnswerSettings = types.JSONText("null")
	}
	now := time.Now().UTC()
	page.UpdatedAt = now

	err := s.withFormLock(ctx, formID, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx,
			"UPDATE "+store.TablePages+
				" SET question_text = $1, question_short_name = $2, hint_text = $3, answer_type = $4,"+
				" answer_settings = $5, is_optional = $6, updated_at = $7 WHERE id = $8 AND form_id = $9",
			page.QuestionText, page.QuestionShortName, page.HintText, page.AnswerType,
			page.AnswerSettings, page.IsOptional, page.UpdatedAt, page.ID, formID,
		)
		if err != nil {
			return err
		}
		if affected, raErr := result.RowsAffected(); raErr == nil && affected == 0 {
			return fault.ErrNotFound
		}

		return s.touchForm(ctx, tx, formID, now, true)
	})
	if err != nil {
		return nil, err
	}

	s.recordPage(page, store.ActionUpdate, now)
	return page, nil
}

// Delete removes the page and closes the position gap it leaves behind.
func (s *pageServiceImpl) Delete(ctx context.Context, formID, pageID string) error {
	now := time.Now().UTC()

	err := s.withFormLock(ctx, formID, func(tx *sqlx.Tx) error {
		var position int
		err := tx.GetContext(ctx, &position,
			"SELECT position FROM "+store.TablePages+" WHERE id = $1 AND form_id = $2", pageID, formID)
		if errors.Is(err, sql.ErrNoRows) {
			return fault.ErrNotFound
		}
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx,
			"DELETE FROM "+store.TablePages+" WHERE id = $1", pageID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			"UPDATE "+store.TablePages+" SET position = position - 1 WHERE form_id = $1 AND position > $2",
			formID, position); err != nil {
			return err
		}

		return s.touchForm(ctx, tx, formID, now, true)
	})
	if err != nil {
		return err
	}

	s.sink.Record(audit.Event{
		RecordKind: audit.KindPage,
		RecordID:   pageID,
		FormID:     formID,
		Action:     store.ActionDelete,
		OccurredAt: now,
	})
	return nil
}

func (s *pageServiceImpl) MoveUp(ctx context.Context, formID, pageID string) error {
	return s.move(ctx, formID, pageID, -1)
}

func (s *pageServiceImpl) MoveDown(ctx context.Context, formID, pageID string) error {
	return s.move(ctx, formID, pageID, +1)
}

// move swaps a page with its neighbour in the position scope. Moving past
// either end is a no-op rather than an error.
func (s *pageServiceImpl) move(ctx context.Context, formID, pageID string, direction int) error {
	now := time.Now().UTC()
	moved := false

	err := s.withFormLock(ctx, formID, func(tx *sqlx.Tx) error {
		var pages []models.Page
		if err := tx.SelectContext(ctx, &pages,
			"SELECT * FROM "+store.TablePages+" WHERE form_id = $1 ORDER BY position ASC", formID); err != nil {
			return err
		}

		index := -1
		for i := range pages {
			if pages[i].ID == pageID {
				index = i
				break
			}
		}
		if index == -1 {
			return fault.ErrNotFound
		}

		neighbour := index + direction
		if neighbour < 0 || neighbour >= len(pages) {
			return nil
		}

		if _, err := tx.ExecContext(ctx,
			"UPDATE "+store.TablePages+" SET position = $1, updated_at = $2 WHERE id = $3",
			pages[neighbour].Position, now, pageID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			"UPDATE "+store.TablePages+" SET position = $1, updated_at = $2 WHERE id = $3",
			pages[index].Position, now, pages[neighbour].ID); err != nil {
			return err
		}
		moved = true

		return s.touchForm(ctx, tx, formID, now, false)
	})
	if err != nil {
		return err
	}

	if moved {
		s.sink.Record(audit.Event{
			RecordKind: audit.KindPage,
			RecordID:   pageID,
			FormID:     formID,
			Action:     store.ActionUpdate,
			OccurredAt: now,
		})
	}
	return nil
}

// withFormLock runs fn inside a transaction holding a row lock on the
// owning form, which serializes sibling reordering per form.
func (s *pageServiceImpl) withFormLock(ctx context.Context, formID string, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.pages.Base().BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var lockedID string
	err = tx.GetContext(ctx, &lockedID,
		"SELECT id FROM "+store.TableForms+" WHERE id = $1 FOR UPDATE", formID)
	if errors.Is(err, sql.ErrNoRows) {
		err = fault.ErrNotFound
		return err
	}
	if err != nil {
		return err
	}

	if err = fn(tx); err != nil {
		return err
	}

	err = tx.Commit()
	return err
}

// touchForm advances the owning form's updated_at; page create, edit and
// delete additionally reset question_section_completed.
func (s *pageServiceImpl) touchForm(ctx context.Context, tx *sqlx.Tx, formID string, now time.Time, resetCompleted bool) error {
	query := "UPDATE " + store.TableForms + " SET updated_at = $1 WHERE id = $2"
	if resetCompleted {
		query = "UPDATE " + store.TableForms + " SET updated_at = $1, question_section_completed = FALSE WHERE id = $2"
	}
	_, err := tx.ExecContext(ctx, query, now, formID)
	return err
}

func (s *pageServiceImpl) recordPage(page *models.Page, action store.Action, at time.Time) {
	s.sink.Record(audit.Event{
		RecordKind: audit.KindPage,
		RecordID:   page.ID,
		FormID:     page.FormID,
		Action:     action,
		Object:     page,
		OccurredAt: at,
	})
}

// validatePage merges the page's own field checks with the answer-type
// settings schema.
func validatePage(page *models.Page) error {
	errs := models.ValidationErrors{}
	mergeValidation(errs, page.Validate())
	if page.AnswerType.Valid() {
		mergeValidation(errs, answersettings.Validate(page.AnswerType, json.RawMessage(page.AnswerSettings)))
	}
	if errs.Any() {
		return errs
	}
	return nil
}

func mergeValidation(into models.ValidationErrors, err error) {
	if err == nil {
		return
	}
	var ve models.ValidationErrors
	if errors.As(err, &ve) {
		for field, messages := range ve {
			for _, message := range messages {
				into.Add(field, message)
			}
		}
	}
}

// fillNextPages populates the derived next_page on an ordered page list.
func fillNextPages(pages []models.Page) {
	for i := range pages {
		if i+1 < len(pages) {
			pages[i].NextPage = pages[i+1].ID
		} else {
			pages[i].NextPage = ""
		}
	}
}
