package db

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"lab-loan-backend/apperr"
	"lab-loan-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repo struct {
	DB *gorm.DB
	// Now is the clock for "today", expiry and overdue checks; swapped out
	// in tests.
	Now func() time.Time
}

func NewRepo(db *gorm.DB) *Repo { return &Repo{DB: db, Now: time.Now} }

// RequestMeta is the caller metadata stamped onto audit rows.
type RequestMeta struct {
	IP        string
	UserAgent string
}

// AuditEntry is one append-only audit row before persistence.
type AuditEntry struct {
	ActorID    *string
	Action     string
	TargetType string
	TargetID   *string
	OldValues  any
	NewValues  any
	Meta       RequestMeta
}

// writeAudit persists an audit row inside the caller's transaction, so a
// failed audit write rolls the primary mutation back with it.
func writeAudit(tx *gorm.DB, e AuditEntry) error {
	row := models.AuditLog{
		ID:         uuid.NewString(),
		ActorID:    e.ActorID,
		Action:     e.Action,
		TargetType: e.TargetType,
		TargetID:   e.TargetID,
		IP:         e.Meta.IP,
		UserAgent:  e.Meta.UserAgent,
	}
	var err error
	if row.OldValues, err = marshalValues(e.OldValues); err != nil {
		return err
	}
	if row.NewValues, err = marshalValues(e.NewValues); err != nil {
		return err
	}
	return tx.Create(&row).Error
}

func marshalValues(v any) (*string, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	s := string(b)
	return &s, nil
}

// translateUnique turns a duplicate-key failure into a field-level
// validation error. Postgres reports SQLSTATE 23505; the sqlite driver used
// in tests reports a constraint message instead.
func translateUnique(err error, field string) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return apperr.Validation(field, "already in use")
	}
	if strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "constraint failed") {
		return apperr.Validation(field, "already in use")
	}
	return err
}

// lockForUpdate takes a row lock on Postgres; sqlite (tests) serializes
// writes on its own and rejects the clause.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

func notFoundOr(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(what)
	}
	return err
}
