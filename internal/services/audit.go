package services

import (
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"oakline/internal/domain"
	applog "oakline/internal/log"
	"oakline/internal/repos"
)

// Auditor appends to the audit trail. Writes are best-effort: a failed audit
// insert is logged and swallowed, it never fails the operation it describes.
type Auditor struct {
	Logs  *repos.AuditRepo
	NewID func() string
}

func NewAuditor(logs *repos.AuditRepo) *Auditor {
	return &Auditor{Logs: logs, NewID: uuid.NewString}
}

func (a *Auditor) Record(userID, action, module, description string) {
	if a == nil || a.Logs == nil {
		return
	}
	a.insert(func(l domain.AuditLog) error { return a.Logs.Insert(l) }, userID, action, module, description)
}

// RecordTx writes the entry through an open transaction. Use this from
// inside a unit of work; Record would wait on the pooled connection the
// transaction already holds.
func (a *Auditor) RecordTx(e sqlx.Ext, userID, action, module, description string) {
	if a == nil || a.Logs == nil {
		return
	}
	a.insert(func(l domain.AuditLog) error { return a.Logs.InsertTx(e, l) }, userID, action, module, description)
}

func (a *Auditor) insert(write func(domain.AuditLog) error, userID, action, module, description string) {
	err := write(domain.AuditLog{
		ID:          a.NewID(),
		UserID:      userID,
		Action:      action,
		Module:      module,
		Description: description,
	})
	if err != nil {
		applog.Error(nil, "audit.record", err, map[string]any{"action": action, "module": module})
	}
}
