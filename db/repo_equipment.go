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

type EquipmentInput struct {
	LaboratoryID  string
	Code          string
	Name          string
	TotalQuantity int
	Condition     models.Condition
	Status        models.EquipmentStatus
}

func (r *Repo) CreateEquipment(ctx context.Context, actor policy.Actor, in EquipmentInput, meta RequestMeta) (*models.Equipment, error) {
	if !policy.CanManageEquipment(actor, in.LaboratoryID) {
		return nil, apperr.Unauthorized()
	}
	if in.Name == "" {
		return nil, apperr.Validation("name", "required")
	}
	in.Code = strings.ToUpper(strings.TrimSpace(in.Code))
	if in.Code == "" {
		return nil, apperr.Validation("code", "required")
	}
	if in.TotalQuantity < 0 {
		return nil, apperr.Validation("totalQuantity", "must not be negative")
	}
	if in.Condition == "" {
		in.Condition = models.ConditionGood
	}
	if !in.Condition.Valid() {
		return nil, apperr.Validation("condition", "unknown condition %q", in.Condition)
	}
	if in.Status == "" {
		in.Status = models.EquipmentActive
	}
	eq := &models.Equipment{
		ID:                uuid.NewString(),
		LaboratoryID:      in.LaboratoryID,
		Code:              in.Code,
		Name:              in.Name,
		TotalQuantity:     in.TotalQuantity,
		AvailableQuantity: in.TotalQuantity,
		Condition:         in.Condition,
		Status:            in.Status,
	}
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var lab models.Laboratory
		if err := tx.First(&lab, "id = ?", in.LaboratoryID).Error; err != nil {
			return notFoundOr(err, "laboratory")
		}
		if err := tx.Create(eq).Error; err != nil {
			return translateUnique(err, "code")
		}
		return writeAudit(tx, AuditEntry{
			ActorID:    &actor.ID,
			Action:     models.ActionEquipmentCreate,
			TargetType: "equipment",
			TargetID:   &eq.ID,
			NewValues:  eq,
			Meta:       meta,
		})
	})
	if err != nil {
		return nil, err
	}
	return eq, nil
}

func (r *Repo) FindEquipmentByID(ctx context.Context, id string) (*models.Equipment, error) {
	var eq models.Equipment
	if err := r.DB.WithContext(ctx).Preload("Laboratory").First(&eq, "id = ?", id).Error; err != nil {
		return nil, notFoundOr(err, "equipment")
	}
	return &eq, nil
}

// ListEquipment is readable by every authenticated user; optional filters
// by laboratory and status.
func (r *Repo) ListEquipment(ctx context.Context, actor policy.Actor, labID string, status models.EquipmentStatus) ([]models.Equipment, error) {
	if !policy.CanReadEquipment(actor) {
		return nil, apperr.Unauthorized()
	}
	tx := r.DB.WithContext(ctx).Preload("Laboratory").Order("code ASC")
	if labID != "" {
		tx = tx.Where("laboratory_id = ?", labID)
	}
	if status != "" {
		tx = tx.Where("status = ?", status)
	}
	var items []models.Equipment
	err := tx.Find(&items).Error
	return items, err
}

type UpdateEquipmentInput struct {
	Name          *string
	TotalQuantity *int
	Condition     *models.Condition
	Status        *models.EquipmentStatus
}

// UpdateEquipment adjusts AvailableQuantity by the same delta as
// TotalQuantity so outstanding reservations stay accounted for.
func (r *Repo) UpdateEquipment(ctx context.Context, actor policy.Actor, id string, in UpdateEquipmentInput, meta RequestMeta) (*models.Equipment, error) {
	var updated *models.Equipment
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var eq models.Equipment
		if err := lockForUpdate(tx).First(&eq, "id = ?", id).Error; err != nil {
			return notFoundOr(err, "equipment")
		}
		if !policy.CanManageEquipment(actor, eq.LaboratoryID) {
			return apperr.Unauthorized()
		}
		old := eq
		if in.Name != nil {
			if *in.Name == "" {
				return apperr.Validation("name", "required")
			}
			eq.Name = *in.Name
		}
		if in.TotalQuantity != nil {
			delta := *in.TotalQuantity - eq.TotalQuantity
			if eq.AvailableQuantity+delta < 0 {
				return apperr.Validation("totalQuantity",
					"cannot drop below the %d units currently on loan", eq.TotalQuantity-eq.AvailableQuantity)
			}
			eq.TotalQuantity = *in.TotalQuantity
			eq.AvailableQuantity += delta
		}
		if in.Condition != nil {
			if !in.Condition.Valid() {
				return apperr.Validation("condition", "unknown condition %q", *in.Condition)
			}
			eq.Condition = *in.Condition
		}
		if in.Status != nil {
			switch *in.Status {
			case models.EquipmentActive, models.EquipmentMaintenance, models.EquipmentRetired:
			default:
				return apperr.Validation("status", "unknown status %q", *in.Status)
			}
			eq.Status = *in.Status
		}
		if err := tx.Save(&eq).Error; err != nil {
			return err
		}
		updated = &eq
		return writeAudit(tx, AuditEntry{
			ActorID:    &actor.ID,
			Action:     models.ActionEquipmentUpdate,
			TargetType: "equipment",
			TargetID:   &eq.ID,
			OldValues:  old,
			NewValues:  eq,
			Meta:       meta,
		})
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteEquipment refuses while loan requests still reference the item.
func (r *Repo) DeleteEquipment(ctx context.Context, actor policy.Actor, id string, meta RequestMeta) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var eq models.Equipment
		if err := tx.First(&eq, "id = ?", id).Error; err != nil {
			return notFoundOr(err, "equipment")
		}
		if !policy.CanManageEquipment(actor, eq.LaboratoryID) {
			return apperr.Unauthorized()
		}
		var n int64
		if err := tx.Model(&models.LoanRequest{}).
			Where("equipment_id = ? AND status IN ?", id,
				[]models.LoanStatus{models.LoanPending, models.LoanApproved, models.LoanBorrowed, models.LoanOverdue}).
			Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return apperr.StateConflict("equipment has %d open loan requests", n)
		}
		if err := tx.Delete(&models.Equipment{}, "id = ?", id).Error; err != nil {
			return err
		}
		return writeAudit(tx, AuditEntry{
			ActorID:    &actor.ID,
			Action:     models.ActionEquipmentDelete,
			TargetType: "equipment",
			TargetID:   &eq.ID,
			OldValues:  eq,
			Meta:       meta,
		})
	})
}
