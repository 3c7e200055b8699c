package db

import (
	"context"
	"strings"

	"lab-loan-backend/apperr"
	"lab-loan-backend/models"
	"lab-loan-backend/policy"
	"lab-loan-backend/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CreateResetRequest is the unauthenticated entry point for locked-out
// users. Only existing, non-inactive accounts may file one, and only one
// pending request per account exists at a time.
func (r *Repo) CreateResetRequest(ctx context.Context, email, reason string, meta RequestMeta) (*models.PasswordResetRequest, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, apperr.Validation("email", "required")
	}
	var created *models.PasswordResetRequest
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var u models.User
		if err := tx.First(&u, "email = ?", email).Error; err != nil {
			return notFoundOr(err, "account")
		}
		if u.Status == models.UserInactive {
			return apperr.StateConflict("account is inactive")
		}
		var n int64
		if err := tx.Model(&models.PasswordResetRequest{}).
			Where("user_id = ? AND status = ?", u.ID, models.ResetPending).
			Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return apperr.StateConflict("a pending reset request already exists")
		}
		req := &models.PasswordResetRequest{
			ID:        uuid.NewString(),
			UserID:    u.ID,
			Token:     uuid.NewString(),
			Status:    models.ResetPending,
			Reason:    reason,
			ExpiresAt: r.Now().Add(models.ResetRequestTTL),
		}
		if err := tx.Create(req).Error; err != nil {
			return translateUnique(err, "token")
		}
		created = req
		return writeAudit(tx, AuditEntry{
			Action:     models.ActionResetRequest,
			TargetType: "password_reset_request",
			TargetID:   &req.ID,
			NewValues:  map[string]any{"userId": u.ID, "status": req.Status},
			Meta:       meta,
		})
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// FindResetByToken lets the requester poll the outcome without a session.
func (r *Repo) FindResetByToken(ctx context.Context, token string) (*models.PasswordResetRequest, error) {
	var req models.PasswordResetRequest
	if err := r.DB.WithContext(ctx).First(&req, "token = ?", token).Error; err != nil {
		return nil, notFoundOr(err, "reset request")
	}
	return &req, nil
}

type ListResetsResult struct {
	Requests []models.PasswordResetRequest `json:"requests"`
	Total    int64                         `json:"total"`
}

func (r *Repo) ListResetRequests(ctx context.Context, actor policy.Actor, status models.ResetStatus, page, size int) (ListResetsResult, error) {
	if !policy.CanListResets(actor) {
		return ListResetsResult{}, apperr.Unauthorized()
	}
	if page <= 0 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	tx := r.DB.WithContext(ctx).Model(&models.PasswordResetRequest{})
	if actor.Role != models.RoleAdmin {
		if actor.LaboratoryID == nil {
			return ListResetsResult{}, apperr.Unauthorized()
		}
		tx = tx.Where("user_id IN (?)",
			r.DB.Model(&models.User{}).Select("id").Where("laboratory_id = ?", *actor.LaboratoryID))
	}
	if status != "" {
		tx = tx.Where("status = ?", status)
	}
	var out ListResetsResult
	if err := tx.Count(&out.Total).Error; err != nil {
		return ListResetsResult{}, err
	}
	err := tx.Preload("User").
		Order("created_at DESC").
		Offset((page - 1) * size).
		Limit(size).
		Find(&out.Requests).Error
	return out, err
}

// ApproveResetRequest issues a temporary password and flags the account for
// a forced change on next login. Returns the plain temporary password for
// out-of-band delivery. Writes two audit rows: one for the request, one for
// the password change it causes.
func (r *Repo) ApproveResetRequest(ctx context.Context, actor policy.Actor, id, approvalNotes string, meta RequestMeta) (*models.PasswordResetRequest, string, error) {
	var (
		updated *models.PasswordResetRequest
		tempPW  string
	)
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var req models.PasswordResetRequest
		if err := lockForUpdate(tx).First(&req, "id = ?", id).Error; err != nil {
			return notFoundOr(err, "reset request")
		}
		var u models.User
		if err := tx.First(&u, "id = ?", req.UserID).Error; err != nil {
			return notFoundOr(err, "user")
		}
		if !policy.CanDecideReset(actor, &u) {
			return apperr.Unauthorized()
		}
		if !models.ResetTransitions.Can(req.Status, models.ResetApproved) {
			return apperr.StateConflict("reset request is already %s", req.Status)
		}
		now := r.Now()
		if req.Expired(now) {
			return apperr.StateConflict("reset request expired on %s", req.ExpiresAt.Format("2006-01-02"))
		}

		tempPW = utils.GenerateTempPassword(12)
		hash, err := utils.HashPassword(tempPW)
		if err != nil {
			return err
		}
		u.PasswordHash = hash
		u.ForcePasswordChange = true
		if err := tx.Save(&u).Error; err != nil {
			return err
		}

		req.Status = models.ResetApproved
		req.ApprovalNotes = approvalNotes
		req.ApprovedByID = &actor.ID
		req.ApprovedAt = &now
		if err := tx.Save(&req).Error; err != nil {
			return err
		}
		updated = &req

		if err := writeAudit(tx, AuditEntry{
			ActorID:    &actor.ID,
			Action:     models.ActionResetApprove,
			TargetType: "password_reset_request",
			TargetID:   &req.ID,
			OldValues:  map[string]any{"status": models.ResetPending},
			NewValues:  map[string]any{"status": models.ResetApproved, "approvalNotes": approvalNotes},
			Meta:       meta,
		}); err != nil {
			return err
		}
		return writeAudit(tx, AuditEntry{
			ActorID:    &actor.ID,
			Action:     models.ActionPasswordChange,
			TargetType: "user",
			TargetID:   &u.ID,
			NewValues:  map[string]any{"forcePasswordChange": true, "temporary": true},
			Meta:       meta,
		})
	})
	if err != nil {
		return nil, "", err
	}
	return updated, tempPW, nil
}

func (r *Repo) RejectResetRequest(ctx context.Context, actor policy.Actor, id, notes string, meta RequestMeta) (*models.PasswordResetRequest, error) {
	var updated *models.PasswordResetRequest
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var req models.PasswordResetRequest
		if err := lockForUpdate(tx).First(&req, "id = ?", id).Error; err != nil {
			return notFoundOr(err, "reset request")
		}
		var u models.User
		if err := tx.First(&u, "id = ?", req.UserID).Error; err != nil {
			return notFoundOr(err, "user")
		}
		if !policy.CanDecideReset(actor, &u) {
			return apperr.Unauthorized()
		}
		if !models.ResetTransitions.Can(req.Status, models.ResetRejected) {
			return apperr.StateConflict("reset request is already %s", req.Status)
		}
		req.Status = models.ResetRejected
		req.ApprovalNotes = notes
		if err := tx.Save(&req).Error; err != nil {
			return err
		}
		updated = &req
		return writeAudit(tx, AuditEntry{
			ActorID:    &actor.ID,
			Action:     models.ActionResetReject,
			TargetType: "password_reset_request",
			TargetID:   &req.ID,
			OldValues:  map[string]any{"status": models.ResetPending},
			NewValues:  map[string]any{"status": models.ResetRejected},
			Meta:       meta,
		})
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
