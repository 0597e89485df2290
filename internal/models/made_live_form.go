package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// MadeLiveForm is an immutable published snapshot of a form. Rows are
// append-only; the latest by creation time is the current live version.
type MadeLiveForm struct {
	ID           string         `db:"id" json:"id"`
	FormID       string         `db:"form_id" json:"form_id"`
	JSONFormBlob types.JSONText `db:"json_form_blob" json:"json_form_blob"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
}
