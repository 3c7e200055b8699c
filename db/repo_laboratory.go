package db

import (
	"context"
	"strings"

	"lab-loan-backend/apperr"
	"lab-loan-backend/models"
	"lab-loan-backend/policy"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LaboratoryInput struct {
	Name   string
	Code   string
	Status models.LabStatus
}

func (r *Repo) CreateLaboratory(ctx context.Context, actor policy.Actor, in LaboratoryInput, meta RequestMeta) (*models.Laboratory, error) {
	if !policy.CanManageLaboratories(actor) {
		return nil, apperr.Unauthorized()
	}
	if in.Name == "" {
		return nil, apperr.Validation("name", "required")
	}
	in.Code = strings.ToUpper(strings.TrimSpace(in.Code))
	if in.Code == "" {
		return nil, apperr.Validation("code", "required")
	}
	if in.Status == "" {
		in.Status = models.LabActive
	}
	lab := &models.Laboratory{
		ID:     uuid.NewString(),
		Name:   in.Name,
		Code:   in.Code,
		Status: in.Status,
	}
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(lab).Error; err != nil {
			return translateUnique(err, "code")
		}
		return writeAudit(tx, AuditEntry{
			ActorID:    &actor.ID,
			Action:     models.ActionLaboratoryCreate,
			TargetType: "laboratory",
			TargetID:   &lab.ID,
			NewValues:  lab,
			Meta:       meta,
		})
	})
	if err != nil {
		return nil, err
	}
	return lab, nil
}

func (r *Repo) GetLaboratory(ctx context.Context, actor policy.Actor, id string) (*models.Laboratory, error) {
	if !policy.CanManageLaboratories(actor) {
		return nil, apperr.Unauthorized()
	}
	var lab models.Laboratory
	if err := r.DB.WithContext(ctx).First(&lab, "id = ?", id).Error; err != nil {
		return nil, notFoundOr(err, "laboratory")
	}
	return &lab, nil
}

func (r *Repo) ListLaboratories(ctx context.Context, actor policy.Actor) ([]models.Laboratory, error) {
	if !policy.CanManageLaboratories(actor) {
		return nil, apperr.Unauthorized()
	}
	var labs []models.Laboratory
	err := r.DB.WithContext(ctx).Order("code ASC").Find(&labs).Error
	return labs, err
}

func (r *Repo) UpdateLaboratory(ctx context.Context, actor policy.Actor, id string, in LaboratoryInput, meta RequestMeta) (*models.Laboratory, error) {
	if !policy.CanManageLaboratories(actor) {
		return nil, apperr.Unauthorized()
	}
	var updated *models.Laboratory
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var lab models.Laboratory
		if err := tx.First(&lab, "id = ?", id).Error; err != nil {
			return notFoundOr(err, "laboratory")
		}
		old := lab
		if in.Name != "" {
			lab.Name = in.Name
		}
		if in.Code != "" {
			lab.Code = strings.ToUpper(strings.TrimSpace(in.Code))
		}
		if in.Status != "" {
			if in.Status != models.LabActive && in.Status != models.LabInactive {
				return apperr.Validation("status", "unknown status %q", in.Status)
			}
			lab.Status = in.Status
		}
		if err := tx.Save(&lab).Error; err != nil {
			return translateUnique(err, "code")
		}
		updated = &lab
		return writeAudit(tx, AuditEntry{
			ActorID:    &actor.ID,
			Action:     models.ActionLaboratoryUpdate,
			TargetType: "laboratory",
			TargetID:   &lab.ID,
			OldValues:  old,
			NewValues:  lab,
			Meta:       meta,
		})
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteLaboratory refuses while equipment is still registered to the lab.
func (r *Repo) DeleteLaboratory(ctx context.Context, actor policy.Actor, id string, meta RequestMeta) error {
	if !policy.CanManageLaboratories(actor) {
		return apperr.Unauthorized()
	}
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var lab models.Laboratory
		if err := tx.First(&lab, "id = ?", id).Error; err != nil {
			return notFoundOr(err, "laboratory")
		}
		var n int64
		if err := tx.Model(&models.Equipment{}).Where("laboratory_id = ?", id).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return apperr.StateConflict("laboratory still has %d equipment items", n)
		}
		if err := tx.Delete(&models.Laboratory{}, "id = ?", id).Error; err != nil {
			return err
		}
		return writeAudit(tx, AuditEntry{
			ActorID:    &actor.ID,
			Action:     models.ActionLaboratoryDelete,
			TargetType: "laboratory",
			TargetID:   &lab.ID,
			OldValues:  lab,
			Meta:       meta,
		})
	})
}
