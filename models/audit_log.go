package models

import "time"

// AuditLog is append-only; rows are never updated or deleted.
type AuditLog struct {
	ID string `gorm:"type:uuid;primaryKey" json:"id"`

	// Nil for unauthenticated actions (registration, reset request).
	ActorID *string `gorm:"type:uuid;index" json:"actorId,omitempty"`
	Actor   *User   `gorm:"foreignKey:ActorID" json:"actor,omitempty"`

	Action     string  `gorm:"size:60;index;not null" json:"action"`
	TargetType string  `gorm:"size:60;index;not null" json:"targetType"`
	TargetID   *string `gorm:"type:uuid;index" json:"targetId,omitempty"`

	OldValues *string `gorm:"type:text" json:"oldValues,omitempty"`
	NewValues *string `gorm:"type:text" json:"newValues,omitempty"`

	IP        string `gorm:"size:45" json:"ip,omitempty"`
	UserAgent string `gorm:"size:255" json:"userAgent,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"createdAt"`
}

func (AuditLog) TableName() string { return "audit_logs" }

// Audit action names, one per state-changing operation.
const (
	ActionLogin            = "login"
	ActionLogout           = "logout"
	ActionRegister         = "register"
	ActionPasswordChange   = "password_change"
	ActionUserCreate       = "user_create"
	ActionUserUpdate       = "user_update"
	ActionUserStatusChange = "user_status_change"
	ActionUserDelete       = "user_delete"
	ActionLoanSubmit       = "loan_request_submit"
	ActionLoanUpdate       = "loan_request_update"
	ActionLoanTransition   = "loan_request_transition"
	ActionLoanDelete       = "loan_request_delete"
	ActionResetRequest     = "password_reset_request"
	ActionResetApprove     = "password_reset_approve"
	ActionResetReject      = "password_reset_reject"
	ActionEquipmentCreate  = "equipment_create"
	ActionEquipmentUpdate  = "equipment_update"
	ActionEquipmentDelete  = "equipment_delete"
	ActionLaboratoryCreate = "laboratory_create"
	ActionLaboratoryUpdate = "laboratory_update"
	ActionLaboratoryDelete = "laboratory_delete"
)
