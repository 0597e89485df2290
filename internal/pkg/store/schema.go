package store

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// Table names shared by the datastores and the services' hand-written
// transactional queries.
const (
	TableForms             = "forms"
	TablePages             = "pages"
	TableRoutingConditions = "routing_conditions"
	TableMadeLiveForms     = "made_live_forms"
	TableRevisions         = "revisions"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS forms (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		form_slug TEXT NOT NULL,
		submission_email TEXT NOT NULL DEFAULT '',
		organisation_slug TEXT NOT NULL DEFAULT '',
		creator_id TEXT NOT NULL DEFAULT '',
		privacy_policy_url TEXT NOT NULL DEFAULT '',
		support_email TEXT NOT NULL DEFAULT '',
		support_phone TEXT NOT NULL DEFAULT '',
		support_url TEXT NOT NULL DEFAULT '',
		support_url_text TEXT NOT NULL DEFAULT '',
		what_happens_next TEXT NOT NULL DEFAULT '',
		declaration_text TEXT NOT NULL DEFAULT '',
		question_section_completed BOOLEAN NOT NULL DEFAULT FALSE,
		declaration_section_completed BOOLEAN NOT NULL DEFAULT FALSE,
		live_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS pages (
		id TEXT PRIMARY KEY,
		form_id TEXT NOT NULL REFERENCES forms(id) ON DELETE CASCADE,
		question_text TEXT NOT NULL,
		question_short_name TEXT NOT NULL DEFAULT '',
		hint_text TEXT NOT NULL DEFAULT '',
		answer_type TEXT NOT NULL,
		answer_settings JSONB,
		is_optional BOOLEAN NOT NULL DEFAULT FALSE,
		position INTEGER NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_pages_form_position ON pages (form_id, position)`,
	`CREATE TABLE IF NOT EXISTS routing_conditions (
		id TEXT PRIMARY KEY,
		routing_page_id TEXT NOT NULL REFERENCES pages(id) ON DELETE CASCADE,
		check_page_id TEXT NOT NULL DEFAULT '',
		goto_page_id TEXT,
		answer_value TEXT NOT NULL DEFAULT '',
		skip_to_end BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_routing_conditions_page ON routing_conditions (routing_page_id)`,
	`CREATE TABLE IF NOT EXISTS made_live_forms (
		id TEXT PRIMARY KEY,
		form_id TEXT NOT NULL REFERENCES forms(id) ON DELETE CASCADE,
		json_form_blob JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_made_live_forms_form_created ON made_live_forms (form_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS revisions (
		id TEXT PRIMARY KEY,
		record_kind TEXT NOT NULL,
		record_id TEXT NOT NULL,
		form_id TEXT NOT NULL,
		action TEXT NOT NULL,
		actor TEXT NOT NULL DEFAULT '',
		object JSONB,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_revisions_record ON revisions (record_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_revisions_form ON revisions (form_id, created_at)`,
}

// Migrate applies the schema. Statements are idempotent so this is safe
// to run on every start.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
