package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"

	"github.com/paulexconde/formdeck/internal/audit"
	"github.com/paulexconde/formdeck/internal/logger"
	"github.com/paulexconde/formdeck/internal/models"
	"github.com/paulexconde/formdeck/internal/pkg/fault"
	"github.com/paulexconde/formdeck/internal/pkg/paginator"
	"github.com/paulexconde/formdeck/internal/pkg/store"
)

// DraftView is the current state of a form next to its publication
// status.
type DraftView struct {
	Snapshot        models.FormSnapshot `json:"snapshot"`
	HasLiveVersion  bool                `json:"has_live_version"`
	HasDraftVersion bool                `json:"has_draft_version"`
}

// Handles the form aggregate: lifecycle, snapshots and the live/draft
// state machine.
type FormService interface {
	Create(ctx context.Context, form *models.Form) (*models.Form, error)
	Get(ctx context.Context, id string) (*models.Form, error)
	List(ctx context.Context, organisationSlug string, page, limit int) (*paginator.PaginatedResponse[models.Form], error)
	Update(ctx context.Context, form *models.Form) (*models.Form, error)
	Delete(ctx context.Context, id string) error
	// MakeLive captures a snapshot at a single instant and appends it as
	// a new made-live version. Form timestamps and the snapshot row are
	// updated in one transaction.
	MakeLive(ctx context.Context, id string) (*models.MadeLiveForm, error)
	// LiveVersion returns the latest made-live blob verbatim.
	LiveVersion(ctx context.Context, id string) (types.JSONText, error)
	Versions(ctx context.Context, id string) ([]models.MadeLiveForm, error)
	Draft(ctx context.Context, id string) (*DraftView, error)
}

type formServiceImpl struct {
	forms      store.Datastorer[models.Form]
	pages      store.Datastorer[models.Page]
	conditions store.Datastorer[models.RoutingCondition]
	madeLive   store.Datastorer[models.MadeLiveForm]
	pager      paginator.Paginator[models.Form]
	sink       audit.Sink
	log        *logger.Logger
}

// Instantiate the FormService.
func NewFormService(
	forms store.Datastorer[models.Form],
	pages store.Datastorer[models.Page],
	conditions store.Datastorer[models.RoutingCondition],
	madeLive store.Datastorer[models.MadeLiveForm],
	pager paginator.Paginator[models.Form],
	sink audit.Sink,
	log *logger.Logger,
) FormService {
	return &formServiceImpl{
		forms:      forms,
		pages:      pages,
		conditions: conditions,
		madeLive:   madeLive,
		pager:      pager,
		sink:       sink,
		log:        log.With("service", "FormService"),
	}
}

func (s *formServiceImpl) Create(ctx context.Context, form *models.Form) (*models.Form, error) {
	form.Normalize()
	if err := form.Validate(); err != nil {
		return nil, err
	}

	if form.ID == "" {
		form.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	form.CreatedAt = now
	form.UpdatedAt = now

	if err := s.forms.Insert(ctx, form.ID, form); err != nil {
		return nil, err
	}
	return form, nil
}

// Get loads the full aggregate: form, pages in position order with their
// derived next_page, and every routing condition attached to its page.
func (s *formServiceImpl) Get(ctx context.Context, id string) (*models.Form, error) {
	form, err := s.forms.Get(ctx, "SELECT * FROM "+store.TableForms+" WHERE id = $1", id)
	if err != nil {
		return nil, err
	}

	pages, err := s.pages.Select(ctx, "SELECT * FROM "+store.TablePages+" WHERE form_id = $1 ORDER BY position ASC", id)
	if err != nil {
		return nil, err
	}

	conditions, err := s.conditions.Select(ctx,
		"SELECT rc.* FROM "+store.TableRoutingConditions+" rc JOIN "+store.TablePages+" p ON p.id = rc.routing_page_id WHERE p.form_id = $1 ORDER BY rc.created_at ASC", id)
	if err != nil {
		return nil, err
	}

	byPage := make(map[string][]models.RoutingCondition, len(pages))
	for _, cond := range conditions {
		byPage[cond.RoutingPageID] = append(byPage[cond.RoutingPageID], cond)
	}
	for i := range pages {
		pages[i].Conditions = byPage[pages[i].ID]
	}

	form.Pages = pages
	form.FillNextPages()
	return form, nil
}

func (s *formServiceImpl) List(ctx context.Context, organisationSlug string, page, limit int) (*paginator.PaginatedResponse[models.Form], error) {
	query := "SELECT * FROM " + store.TableForms
	args := []any{}
	if organisationSlug != "" {
		query += " WHERE organisation_slug = $1"
		args = append(args, organisationSlug)
	}
	query += " ORDER BY created_at DESC"
	return s.pager.PaginateQuery(ctx, query, args, page, limit)
}

func (s *formServiceImpl) Update(ctx context.Context, form *models.Form) (*models.Form, error) {
	form.Normalize()
	if err := form.Validate(); err != nil {
		return nil, err
	}

	form.UpdatedAt = time.Now().UTC()
	if err := s.forms.Update(ctx, form.ID, form); err != nil {
		return nil, err
	}
	return form, nil
}

// Delete removes the form. Pages, routing conditions and made-live
// snapshots go with it via the schema's cascade rules.
func (s *formServiceImpl) Delete(ctx context.Context, id string) error {
	return s.forms.Delete(ctx, id)
}

func (s *formServiceImpl) MakeLive(ctx context.Context, id string) (*models.MadeLiveForm, error) {
	form, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	madeLive, err := newMadeLiveForm(form, now)
	if err != nil {
		return nil, err
	}

	// The snapshot insert and the form timestamp update land together or
	// not at all: live_at must never drift from its made-live row.
	tx, err := s.forms.Base().BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx,
		"INSERT INTO "+store.TableMadeLiveForms+" (id, form_id, json_form_blob, created_at) VALUES ($1, $2, $3, $4)",
		madeLive.ID, madeLive.FormID, madeLive.JSONFormBlob, madeLive.CreatedAt,
	); err != nil {
		return nil, err
	}

	if _, err = tx.ExecContext(ctx,
		"UPDATE "+store.TableForms+" SET live_at = $1, updated_at = $1 WHERE id = $2",
		now, id,
	); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}

	s.sink.Record(audit.Event{
		RecordKind: audit.KindMadeLiveForm,
		RecordID:   madeLive.ID,
		FormID:     id,
		Action:     store.ActionCreate,
		Object:     madeLive,
		OccurredAt: now,
	})
	s.log.Info("form made live", "form_id", id, "made_live_form_id", madeLive.ID)

	return madeLive, nil
}

func (s *formServiceImpl) LiveVersion(ctx context.Context, id string) (types.JSONText, error) {
	latest, err := s.latestMadeLive(ctx, id)
	if err != nil {
		return nil, err
	}
	return latest.JSONFormBlob, nil
}

func (s *formServiceImpl) Versions(ctx context.Context, id string) ([]models.MadeLiveForm, error) {
	if _, err := s.forms.Get(ctx, "SELECT * FROM "+store.TableForms+" WHERE id = $1", id); err != nil {
		return nil, err
	}
	return s.madeLive.Select(ctx,
		"SELECT * FROM "+store.TableMadeLiveForms+" WHERE form_id = $1 ORDER BY created_at DESC", id)
}

func (s *formServiceImpl) Draft(ctx context.Context, id string) (*DraftView, error) {
	form, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	var latestLiveAt *time.Time
	latest, err := s.latestMadeLive(ctx, id)
	switch {
	case err == nil:
		latestLiveAt = &latest.CreatedAt
	case errors.Is(err, fault.ErrNotFound):
		// never published
	default:
		return nil, err
	}

	return &DraftView{
		Snapshot:        form.Snapshot(nil),
		HasLiveVersion:  latestLiveAt != nil,
		HasDraftVersion: form.HasDraftVersion(latestLiveAt),
	}, nil
}

// newMadeLiveForm validates the aggregate and captures its publishable
// snapshot. One instant is stamped into the snapshot blob's live_at and
// updated_at, the made-live row's created_at and the form itself, so the
// three can never disagree about when publication happened.
func newMadeLiveForm(form *models.Form, now time.Time) (*models.MadeLiveForm, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}

	form.UpdatedAt = now
	snapshot := form.Snapshot(&now)

	blob, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fault.NewInternalError("marshal form snapshot", err)
	}

	return &models.MadeLiveForm{
		ID:           uuid.NewString(),
		FormID:       form.ID,
		JSONFormBlob: types.JSONText(blob),
		CreatedAt:    now,
	}, nil
}

func (s *formServiceImpl) latestMadeLive(ctx context.Context, formID string) (*models.MadeLiveForm, error) {
	return s.madeLive.Get(ctx,
		"SELECT * FROM "+store.TableMadeLiveForms+" WHERE form_id = $1 ORDER BY created_at DESC LIMIT 1", formID)
}
