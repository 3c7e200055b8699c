package db

import (
	"context"
	"time"

	"lab-loan-backend/apperr"
	"lab-loan-backend/models"
	"lab-loan-backend/policy"
	"lab-loan-backend/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// reserveEquipment decrements availability under a row lock. Fails without
// touching the row if the reservation would overdraw it.
func reserveEquipment(tx *gorm.DB, equipmentID string, qty int) error {
	var eq models.Equipment
	if err := lockForUpdate(tx).First(&eq, "id = ?", equipmentID).Error; err != nil {
		return notFoundOr(err, "equipment")
	}
	if qty > eq.AvailableQuantity {
		return apperr.InsufficientInventory(qty, eq.AvailableQuantity)
	}
	return tx.Model(&models.Equipment{}).
		Where("id = ?", equipmentID).
		Update("available_quantity", gorm.Expr("available_quantity - ?", qty)).Error
}

// releaseEquipment gives a reservation back; overshooting TotalQuantity
// would mean the ledger is corrupt, so it fails loudly instead.
func releaseEquipment(tx *gorm.DB, equipmentID string, qty int) error {
	var eq models.Equipment
	if err := lockForUpdate(tx).First(&eq, "id = ?", equipmentID).Error; err != nil {
		return notFoundOr(err, "equipment")
	}
	if eq.AvailableQuantity+qty > eq.TotalQuantity {
		return apperr.InsufficientInventory(qty, eq.TotalQuantity-eq.AvailableQuantity)
	}
	return tx.Model(&models.Equipment{}).
		Where("id = ?", equipmentID).
		Update("available_quantity", gorm.Expr("available_quantity + ?", qty)).Error
}

// nextRequestNumber bumps the one-row sequence inside the submission
// transaction; the lock keeps numbers unique under concurrent submissions.
func nextRequestNumber(tx *gorm.DB) (string, error) {
	var c requestCounter
	if err := lockForUpdate(tx).First(&c, "id = 1").Error; err != nil {
		return "", err
	}
	c.Value++
	if err := tx.Save(&c).Error; err != nil {
		return "", err
	}
	return utils.FormatRequestNumber(c.Value), nil
}

type SubmitLoanInput struct {
	EquipmentID string
	Quantity    int
	StartDate   time.Time
	EndDate     time.Time
	Purpose     string
	Notes       string
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func (r *Repo) validateLoanDates(start, end time.Time) error {
	if !end.After(start) {
		return apperr.Validation("requestedEndDate", "must be after the start date")
	}
	if startOfDay(start).Before(startOfDay(r.Now())) {
		return apperr.Validation("requestedStartDate", "must not be in the past")
	}
	return nil
}

// SubmitLoanRequest creates a pending request. Availability is validated
// under the equipment row lock but not decremented; the decrement happens
// on approval.
func (r *Repo) SubmitLoanRequest(ctx context.Context, actor policy.Actor, in SubmitLoanInput, meta RequestMeta) (*models.LoanRequest, error) {
	if !policy.CanCreateLoan(actor) {
		return nil, apperr.Unauthorized()
	}
	if in.Quantity < 1 {
		return nil, apperr.Validation("quantityRequested", "must be at least 1")
	}
	if err := r.validateLoanDates(in.StartDate, in.EndDate); err != nil {
		return nil, err
	}

	var created *models.LoanRequest
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var eq models.Equipment
		if err := lockForUpdate(tx).First(&eq, "id = ?", in.EquipmentID).Error; err != nil {
			return notFoundOr(err, "equipment")
		}
		if eq.Status != models.EquipmentActive {
			return apperr.Validation("equipmentId", "equipment is %s", eq.Status)
		}
		if in.Quantity > eq.AvailableQuantity {
			return apperr.InsufficientInventory(in.Quantity, eq.AvailableQuantity)
		}

		number, err := nextRequestNumber(tx)
		if err != nil {
			return err
		}
		req := &models.LoanRequest{
			ID:                 uuid.NewString(),
			RequestNumber:      number,
			RequesterID:        actor.ID,
			EquipmentID:        eq.ID,
			LaboratoryID:       eq.LaboratoryID,
			QuantityRequested:  in.Quantity,
			RequestedStartDate: in.StartDate,
			RequestedEndDate:   in.EndDate,
			Purpose:            in.Purpose,
			Notes:              in.Notes,
			Status:             models.LoanPending,
		}
		if err := tx.Create(req).Error; err != nil {
			return translateUnique(err, "requestNumber")
		}
		created = req
		return writeAudit(tx, AuditEntry{
			ActorID:    &actor.ID,
			Action:     models.ActionLoanSubmit,
			TargetType: "loan_request",
			TargetID:   &req.ID,
			NewValues:  req,
			Meta:       meta,
		})
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (r *Repo) GetLoanRequest(ctx context.Context, actor policy.Actor, id string) (*models.LoanRequest, error) {
	var req models.LoanRequest
	err := r.DB.WithContext(ctx).
		Preload("Requester").Preload("Equipment").
		First(&req, "id = ?", id).Error
	if err != nil {
		return nil, notFoundOr(err, "loan request")
	}
	// An out-of-scope id looks exactly like a missing one.
	if !policy.CanViewLoan(actor, &req) {
		return nil, apperr.NotFound("loan request")
	}
	return &req, nil
}

type LoanFilter struct {
	Status      models.LoanStatus
	EquipmentID string
	Page, Size  int
}

type ListLoansResult struct {
	Requests []models.LoanRequest `json:"requests"`
	Total    int64                `json:"total"`
}

// ListLoanRequests: admins see all, lab staff their laboratory's, everyone
// else their own.
func (r *Repo) ListLoanRequests(ctx context.Context, actor policy.Actor, f LoanFilter) (ListLoansResult, error) {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Size <= 0 || f.Size > 100 {
		f.Size = 20
	}
	tx := r.DB.WithContext(ctx).Model(&models.LoanRequest{})
	switch {
	case actor.Role == models.RoleAdmin:
	case actor.Role.LabStaff() && actor.LaboratoryID != nil:
		tx = tx.Where("laboratory_id = ?", *actor.LaboratoryID)
	default:
		tx = tx.Where("requester_id = ?", actor.ID)
	}
	if f.Status != "" {
		tx = tx.Where("status = ?", f.Status)
	}
	if f.EquipmentID != "" {
		tx = tx.Where("equipment_id = ?", f.EquipmentID)
	}

	var out ListLoansResult
	if err := tx.Count(&out.Total).Error; err != nil {
		return ListLoansResult{}, err
	}
	err := tx.Preload("Requester").Preload("Equipment").
		Order("created_at DESC").
		Offset((f.Page - 1) * f.Size).
		Limit(f.Size).
		Find(&out.Requests).Error
	return out, err
}

type UpdateLoanInput struct {
	Quantity  *int
	StartDate *time.Time
	EndDate   *time.Time
	Purpose   *string
	Notes     *string
}

// UpdateLoanRequest lets the requester adjust a request while it is still
// pending; the status field is out of reach here.
func (r *Repo) UpdateLoanRequest(ctx context.Context, actor policy.Actor, id string, in UpdateLoanInput, meta RequestMeta) (*models.LoanRequest, error) {
	var updated *models.LoanRequest
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var req models.LoanRequest
		if err := lockForUpdate(tx).First(&req, "id = ?", id).Error; err != nil {
			return notFoundOr(err, "loan request")
		}
		if !policy.CanViewLoan(actor, &req) {
			return apperr.NotFound("loan request")
		}
		if !policy.CanEditLoan(actor, &req) {
			return apperr.Unauthorized()
		}
		if req.Status != models.LoanPending {
			return apperr.StateConflict("only pending requests can be edited")
		}
		old := req

		if in.Quantity != nil {
			if *in.Quantity < 1 {
				return apperr.Validation("quantityRequested", "must be at least 1")
			}
			var eq models.Equipment
			if err := tx.First(&eq, "id = ?", req.EquipmentID).Error; err != nil {
				return notFoundOr(err, "equipment")
			}
			if *in.Quantity > eq.AvailableQuantity {
				return apperr.InsufficientInventory(*in.Quantity, eq.AvailableQuantity)
			}
			req.QuantityRequested = *in.Quantity
		}
		start, end := req.RequestedStartDate, req.RequestedEndDate
		if in.StartDate != nil {
			start = *in.StartDate
		}
		if in.EndDate != nil {
			end = *in.EndDate
		}
		if in.StartDate != nil || in.EndDate != nil {
			if err := r.validateLoanDates(start, end); err != nil {
				return err
			}
			req.RequestedStartDate, req.RequestedEndDate = start, end
		}
		if in.Purpose != nil {
			req.Purpose = *in.Purpose
		}
		if in.Notes != nil {
			req.Notes = *in.Notes
		}

		if err := tx.Save(&req).Error; err != nil {
			return err
		}
		updated = &req
		return writeAudit(tx, AuditEntry{
			ActorID:    &actor.ID,
			Action:     models.ActionLoanUpdate,
			TargetType: "loan_request",
			TargetID:   &req.ID,
			OldValues:  old,
			NewValues:  req,
			Meta:       meta,
		})
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// TransitionLoanRequest applies one lifecycle edge. State change, inventory
// effect and audit row commit or roll back together.
func (r *Repo) TransitionLoanRequest(ctx context.Context, actor policy.Actor, id string, to models.LoanStatus, rejectionReason string, meta RequestMeta) (*models.LoanRequest, error) {
	var updated *models.LoanRequest
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var req models.LoanRequest
		if err := lockForUpdate(tx).First(&req, "id = ?", id).Error; err != nil {
			return notFoundOr(err, "loan request")
		}
		if !policy.CanViewLoan(actor, &req) {
			return apperr.NotFound("loan request")
		}
		if !policy.CanTransitionLoan(actor, &req) {
			return apperr.Unauthorized()
		}
		if !models.LoanTransitions.Can(req.Status, to) {
			return apperr.StateConflict("cannot move request from %s to %s", req.Status, to)
		}

		now := r.Now()
		old := req
		switch to {
		case models.LoanApproved:
			if err := reserveEquipment(tx, req.EquipmentID, req.QuantityRequested); err != nil {
				return err
			}
			req.ApprovedByID = &actor.ID
			req.ApprovedAt = &now
		case models.LoanRejected:
			if rejectionReason == "" {
				return apperr.Validation("rejectionReason", "required when rejecting")
			}
			req.RejectionReason = rejectionReason
		case models.LoanBorrowed:
			req.BorrowedAt = &now
		case models.LoanReturned:
			if err := releaseEquipment(tx, req.EquipmentID, req.QuantityRequested); err != nil {
				return err
			}
			req.ReturnedAt = &now
		case models.LoanOverdue:
			if !now.After(req.RequestedEndDate) {
				return apperr.StateConflict("request is not past its end date yet")
			}
		}
		req.Status = to

		if err := tx.Save(&req).Error; err != nil {
			return err
		}
		updated = &req
		return writeAudit(tx, AuditEntry{
			ActorID:    &actor.ID,
			Action:     models.ActionLoanTransition,
			TargetType: "loan_request",
			TargetID:   &req.ID,
			OldValues:  map[string]any{"status": old.Status},
			NewValues:  map[string]any{"status": to},
			Meta:       meta,
		})
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteLoanRequest removes a request that never left pending.
func (r *Repo) DeleteLoanRequest(ctx context.Context, actor policy.Actor, id string, meta RequestMeta) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var req models.LoanRequest
		if err := lockForUpdate(tx).First(&req, "id = ?", id).Error; err != nil {
			return notFoundOr(err, "loan request")
		}
		if !policy.CanViewLoan(actor, &req) {
			return apperr.NotFound("loan request")
		}
		if !policy.CanDeleteLoan(actor, &req) {
			return apperr.Unauthorized()
		}
		if req.Status != models.LoanPending {
			return apperr.StateConflict("only pending requests can be deleted")
		}
		if err := tx.Delete(&models.LoanRequest{}, "id = ?", id).Error; err != nil {
			return err
		}
		return writeAudit(tx, AuditEntry{
			ActorID:    &actor.ID,
			Action:     models.ActionLoanDelete,
			TargetType: "loan_request",
			TargetID:   &req.ID,
			OldValues:  req,
			Meta:       meta,
		})
	})
}

// AllLoanRequestsForExport returns the full table for the admin report,
// oldest first.
func (r *Repo) AllLoanRequestsForExport(ctx context.Context, actor policy.Actor) ([]models.LoanRequest, error) {
	if !policy.CanExportReports(actor) {
		return nil, apperr.Unauthorized()
	}
	var out []models.LoanRequest
	err := r.DB.WithContext(ctx).
		Preload("Requester").Preload("Equipment").
		Order("created_at ASC").
		Find(&out).Error
	return out, err
}

// OverdueLoanRequests lists requests whose end date has passed without a
// return, whether or not they were already marked overdue. Same visibility
// scoping as ListLoanRequests.
func (r *Repo) OverdueLoanRequests(ctx context.Context, actor policy.Actor, asOf time.Time) ([]models.LoanRequest, error) {
	tx := r.DB.WithContext(ctx).Model(&models.LoanRequest{})
	switch {
	case actor.Role == models.RoleAdmin:
	case actor.Role.LabStaff() && actor.LaboratoryID != nil:
		tx = tx.Where("laboratory_id = ?", *actor.LaboratoryID)
	default:
		tx = tx.Where("requester_id = ?", actor.ID)
	}
	var out []models.LoanRequest
	err := tx.
		Where("(status IN ? AND requested_end_date < ?) OR status = ?",
			[]models.LoanStatus{models.LoanApproved, models.LoanBorrowed}, asOf, models.LoanOverdue).
		Preload("Requester").Preload("Equipment").
		Order("requested_end_date ASC").
		Find(&out).Error
	return out, err
}
