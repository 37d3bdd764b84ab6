package repos

import (
	"github.com/jmoiron/sqlx"

	"oakline/internal/domain"
)

type AuditRepo struct{ db *sqlx.DB }

func NewAuditRepo(db *sqlx.DB) *AuditRepo { return &AuditRepo{db: db} }

func (r *AuditRepo) Insert(l domain.AuditLog) error {
	return r.InsertTx(r.db, l)
}

// InsertTx writes through the caller's transaction. Required whenever the
// caller already holds the single sqlite write connection.
func (r *AuditRepo) InsertTx(e sqlx.Ext, l domain.AuditLog) error {
	_, err := e.Exec(`
	  INSERT INTO audit_logs(id, user_id, action, module, description) VALUES(?,?,?,?,?)
	`, l.ID, l.UserID, l.Action, l.Module, l.Description)
	return err
}

func (r *AuditRepo) ListLatest(limit int) ([]domain.AuditLog, error) {
	if limit <= 0 {
		limit = 100
	}
	var out []domain.AuditLog
	err := r.db.Select(&out, `
	  SELECT id, user_id, action, module, description, created_at
	  FROM audit_logs ORDER BY datetime(created_at) DESC LIMIT ?
	`, limit)
	return out, err
}
