package db

import (
	"context"
	"errors"
	"strings"

	"lab-loan-backend/apperr"
	"lab-loan-backend/models"
	"lab-loan-backend/policy"
	"lab-loan-backend/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// userSnapshot is what goes into audit rows; never the password hash.
type userSnapshot struct {
	Email        string            `json:"email"`
	FullName     string            `json:"fullName"`
	Role         models.Role       `json:"role"`
	Status       models.UserStatus `json:"status"`
	LaboratoryID *string           `json:"laboratoryId,omitempty"`
}

func snapUser(u *models.User) userSnapshot {
	return userSnapshot{
		Email:        u.Email,
		FullName:     u.FullName,
		Role:         u.Role,
		Status:       u.Status,
		LaboratoryID: u.LaboratoryID,
	}
}

type RegisterInput struct {
	Email     string
	FullName  string
	StudentID string
	Password  string
}

// Register is the self-service path: the account lands in
// pending_verification and cannot log in until activated by staff.
func (r *Repo) Register(ctx context.Context, in RegisterInput, meta RequestMeta) (*models.User, error) {
	if err := validateNewPassword(in.Password); err != nil {
		return nil, err
	}
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Email == "" {
		return nil, apperr.Validation("email", "required")
	}
	if in.FullName == "" {
		return nil, apperr.Validation("fullName", "required")
	}
	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	u := &models.User{
		ID:           uuid.NewString(),
		Email:        in.Email,
		FullName:     in.FullName,
		PasswordHash: hash,
		Role:         models.RoleStudent,
		Status:       models.UserPendingVerification,
	}
	if s := strings.TrimSpace(in.StudentID); s != "" {
		u.StudentID = &s
	}
	err = r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(u).Error; err != nil {
			return translateUnique(err, uniqueUserField(err))
		}
		snap := snapUser(u)
		return writeAudit(tx, AuditEntry{
			Action:     models.ActionRegister,
			TargetType: "user",
			TargetID:   &u.ID,
			NewValues:  snap,
			Meta:       meta,
		})
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

type CreateUserInput struct {
	Email        string
	FullName     string
	StudentID    string
	Password     string
	Role         models.Role
	LaboratoryID *string
}

// CreateUser is the staff path; accounts start active.
func (r *Repo) CreateUser(ctx context.Context, actor policy.Actor, in CreateUserInput, meta RequestMeta) (*models.User, error) {
	if !policy.CanCreateUser(actor, in.Role, in.LaboratoryID) {
		return nil, apperr.Unauthorized()
	}
	if !in.Role.Valid() {
		return nil, apperr.Validation("role", "unknown role %q", in.Role)
	}
	if in.Role.LabStaff() && in.LaboratoryID == nil {
		return nil, apperr.Validation("laboratoryId", "required for lab staff")
	}
	if err := validateNewPassword(in.Password); err != nil {
		return nil, err
	}
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Email == "" {
		return nil, apperr.Validation("email", "required")
	}
	if in.FullName == "" {
		return nil, apperr.Validation("fullName", "required")
	}
	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	u := &models.User{
		ID:           uuid.NewString(),
		Email:        in.Email,
		FullName:     in.FullName,
		PasswordHash: hash,
		Role:         in.Role,
		Status:       models.UserActive,
		LaboratoryID: in.LaboratoryID,
	}
	if s := strings.TrimSpace(in.StudentID); s != "" {
		u.StudentID = &s
	}
	err = r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if in.LaboratoryID != nil {
			var lab models.Laboratory
			if err := tx.First(&lab, "id = ?", *in.LaboratoryID).Error; err != nil {
				return notFoundOr(err, "laboratory")
			}
		}
		if err := tx.Create(u).Error; err != nil {
			return translateUnique(err, uniqueUserField(err))
		}
		return writeAudit(tx, AuditEntry{
			ActorID:    &actor.ID,
			Action:     models.ActionUserCreate,
			TargetType: "user",
			TargetID:   &u.ID,
			NewValues:  snapUser(u),
			Meta:       meta,
		})
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *Repo) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := r.DB.WithContext(ctx).Preload("Laboratory").First(&u, "id = ?", id).Error; err != nil {
		return nil, notFoundOr(err, "user")
	}
	return &u, nil
}

func (r *Repo) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	email = strings.ToLower(strings.TrimSpace(email))
	if err := r.DB.WithContext(ctx).First(&u, "email = ?", email).Error; err != nil {
		return nil, notFoundOr(err, "user")
	}
	return &u, nil
}

// GetUser applies the visibility rule on top of the lookup.
func (r *Repo) GetUser(ctx context.Context, actor policy.Actor, id string) (*models.User, error) {
	u, err := r.FindUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanViewUser(actor, u) {
		return nil, apperr.NotFound("user")
	}
	return u, nil
}

type ListUsersResult struct {
	Users []models.User `json:"users"`
	Total int64         `json:"total"`
}

// ListUsers: admins see everyone, lab staff see the students of their own
// laboratory, everyone else is denied.
func (r *Repo) ListUsers(ctx context.Context, actor policy.Actor, q string, page, size int) (ListUsersResult, error) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}

	tx := r.DB.WithContext(ctx).Model(&models.User{})
	switch {
	case actor.Role == models.RoleAdmin:
	case actor.Role.LabStaff() && actor.LaboratoryID != nil:
		tx = tx.Where("role = ? AND laboratory_id = ?", models.RoleStudent, *actor.LaboratoryID)
	default:
		return ListUsersResult{}, apperr.Unauthorized()
	}
	if q = strings.TrimSpace(q); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		tx = tx.Where("LOWER(email) LIKE ? OR LOWER(full_name) LIKE ?", like, like)
	}

	var out ListUsersResult
	if err := tx.Count(&out.Total).Error; err != nil {
		return ListUsersResult{}, err
	}
	err := tx.Order("created_at DESC").
		Offset((page - 1) * size).
		Limit(size).
		Find(&out.Users).Error
	return out, err
}

type UpdateUserInput struct {
	FullName     *string
	StudentID    *string
	Role         *models.Role
	LaboratoryID *string
	ClearLab     bool
}

func (r *Repo) UpdateUser(ctx context.Context, actor policy.Actor, id string, in UpdateUserInput, meta RequestMeta) (*models.User, error) {
	var updated *models.User
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var u models.User
		if err := tx.First(&u, "id = ?", id).Error; err != nil {
			return notFoundOr(err, "user")
		}
		if !policy.CanViewUser(actor, &u) {
			return apperr.NotFound("user")
		}
		if actor.ID != u.ID && !policy.CanManageUser(actor, &u) {
			return apperr.Unauthorized()
		}
		old := snapUser(&u)

		if in.FullName != nil {
			if *in.FullName == "" {
				return apperr.Validation("fullName", "required")
			}
			u.FullName = *in.FullName
		}
		if in.StudentID != nil {
			if s := strings.TrimSpace(*in.StudentID); s == "" {
				u.StudentID = nil
			} else {
				u.StudentID = &s
			}
		}
		if in.Role != nil && *in.Role != u.Role {
			if !in.Role.Valid() {
				return apperr.Validation("role", "unknown role %q", *in.Role)
			}
			if !policy.CanAssignRole(actor, &u, *in.Role) {
				return apperr.Unauthorized()
			}
			u.Role = *in.Role
		}
		if in.LaboratoryID != nil || in.ClearLab {
			target := in.LaboratoryID
			if in.ClearLab {
				target = nil
			}
			if !policy.CanAssignLaboratory(actor, &u, target) {
				return apperr.Unauthorized()
			}
			if target != nil {
				var lab models.Laboratory
				if err := tx.First(&lab, "id = ?", *target).Error; err != nil {
					return notFoundOr(err, "laboratory")
				}
			}
			u.LaboratoryID = target
		}
		if u.Role.LabStaff() && u.LaboratoryID == nil {
			return apperr.Validation("laboratoryId", "required for lab staff")
		}

		if err := tx.Save(&u).Error; err != nil {
			return translateUnique(err, uniqueUserField(err))
		}
		updated = &u
		return writeAudit(tx, AuditEntry{
			ActorID:    &actor.ID,
			Action:     models.ActionUserUpdate,
			TargetType: "user",
			TargetID:   &u.ID,
			OldValues:  old,
			NewValues:  snapUser(&u),
			Meta:       meta,
		})
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// SetUserStatus drives the account state machine: activation of a pending
// account and the active/inactive toggle.
func (r *Repo) SetUserStatus(ctx context.Context, actor policy.Actor, id string, status models.UserStatus, meta RequestMeta) (*models.User, error) {
	var updated *models.User
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var u models.User
		if err := tx.First(&u, "id = ?", id).Error; err != nil {
			return notFoundOr(err, "user")
		}
		if !policy.CanViewUser(actor, &u) {
			return apperr.NotFound("user")
		}
		if !policy.CanManageUser(actor, &u) {
			return apperr.Unauthorized()
		}
		if !models.UserTransitions.Can(u.Status, status) {
			return apperr.StateConflict("cannot move account from %s to %s", u.Status, status)
		}
		old := snapUser(&u)
		u.Status = status
		if err := tx.Save(&u).Error; err != nil {
			return err
		}
		updated = &u
		return writeAudit(tx, AuditEntry{
			ActorID:    &actor.ID,
			Action:     models.ActionUserStatusChange,
			TargetType: "user",
			TargetID:   &u.ID,
			OldValues:  old,
			NewValues:  snapUser(&u),
			Meta:       meta,
		})
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *Repo) DeleteUser(ctx context.Context, actor policy.Actor, id string, meta RequestMeta) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var u models.User
		if err := tx.First(&u, "id = ?", id).Error; err != nil {
			return notFoundOr(err, "user")
		}
		// Out-of-scope ids look exactly like missing ones.
		if !policy.CanViewUser(actor, &u) {
			return apperr.NotFound("user")
		}
		if !policy.CanManageUser(actor, &u) {
			return apperr.Unauthorized()
		}
		if actor.ID == u.ID {
			return apperr.Validation("id", "cannot delete own account")
		}
		old := snapUser(&u)
		if err := tx.Delete(&models.User{}, "id = ?", id).Error; err != nil {
			return err
		}
		return writeAudit(tx, AuditEntry{
			ActorID:    &actor.ID,
			Action:     models.ActionUserDelete,
			TargetType: "user",
			TargetID:   &u.ID,
			OldValues:  old,
			Meta:       meta,
		})
	})
}

func (r *Repo) TouchUserLogin(ctx context.Context, userID, ip, ua string) error {
	return r.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"last_login_at": r.Now(),
			"last_login_ip": ip,
			"last_login_ua": ua,
		}).Error
}

// ChangePassword verifies the current password (a temporary one included),
// swaps the hash, clears the force flag and completes any approved reset
// request in the same transaction.
func (r *Repo) ChangePassword(ctx context.Context, userID, current, next string, meta RequestMeta) error {
	if err := validateNewPassword(next); err != nil {
		return err
	}
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var u models.User
		if err := tx.First(&u, "id = ?", userID).Error; err != nil {
			return notFoundOr(err, "user")
		}
		if !utils.CheckPassword(u.PasswordHash, current) {
			return apperr.Validation("currentPassword", "incorrect password")
		}
		hash, err := utils.HashPassword(next)
		if err != nil {
			return err
		}
		u.PasswordHash = hash
		u.ForcePasswordChange = false
		if err := tx.Save(&u).Error; err != nil {
			return err
		}

		// An approved reset request is completed by this change.
		var reset models.PasswordResetRequest
		err = tx.First(&reset, "user_id = ? AND status = ?", userID, models.ResetApproved).Error
		if err == nil {
			now := r.Now()
			reset.Status = models.ResetCompleted
			reset.CompletedAt = &now
			if err := tx.Save(&reset).Error; err != nil {
				return err
			}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		return writeAudit(tx, AuditEntry{
			ActorID:    &userID,
			Action:     models.ActionPasswordChange,
			TargetType: "user",
			TargetID:   &userID,
			Meta:       meta,
		})
	})
}

func validateNewPassword(pw string) error {
	if len(pw) < utils.MinPasswordLength {
		return apperr.Validation("password", "must be at least %d characters", utils.MinPasswordLength)
	}
	return nil
}

// uniqueUserField guesses which unique column a duplicate-key error refers
// to, for the field hint on the validation message.
func uniqueUserField(err error) string {
	if err == nil {
		return "email"
	}
	if strings.Contains(err.Error(), "student") {
		return "studentId"
	}
	return "email"
}
