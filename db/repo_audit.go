package db

import (
	"context"
	"log"

	"lab-loan-backend/apperr"
	"lab-loan-backend/models"
	"lab-loan-backend/policy"
)

// RecordAudit is the best-effort path for actions that have no surrounding
// database transaction (login, logout). A failed write is logged and
// swallowed; the action itself proceeds.
func (r *Repo) RecordAudit(ctx context.Context, e AuditEntry) {
	if err := writeAudit(r.DB.WithContext(ctx), e); err != nil {
		log.Printf("audit write failed (action=%s): %v", e.Action, err)
	}
}

type AuditFilter struct {
	ActorID    string
	Action     string
	TargetType string
	TargetID   string
	Page, Size int
}

type ListAuditResult struct {
	Logs  []models.AuditLog `json:"logs"`
	Total int64             `json:"total"`
}

func (r *Repo) ListAuditLogs(ctx context.Context, actor policy.Actor, f AuditFilter) (ListAuditResult, error) {
	if !policy.CanReadAuditLogs(actor) {
		return ListAuditResult{}, apperr.Unauthorized()
	}
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Size <= 0 || f.Size > 200 {
		f.Size = 50
	}
	tx := r.DB.WithContext(ctx).Model(&models.AuditLog{})
	if f.ActorID != "" {
		tx = tx.Where("actor_id = ?", f.ActorID)
	}
	if f.Action != "" {
		tx = tx.Where("action = ?", f.Action)
	}
	if f.TargetType != "" {
		tx = tx.Where("target_type = ?", f.TargetType)
	}
	if f.TargetID != "" {
		tx = tx.Where("target_id = ?", f.TargetID)
	}
	var out ListAuditResult
	if err := tx.Count(&out.Total).Error; err != nil {
		return ListAuditResult{}, err
	}
	err := tx.Order("created_at DESC").
		Offset((f.Page - 1) * f.Size).
		Limit(f.Size).
		Find(&out.Logs).Error
	return out, err
}
