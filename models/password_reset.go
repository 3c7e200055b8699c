package models

import "time"

type ResetStatus string

const (
	ResetPending   ResetStatus = "pending"
	ResetApproved  ResetStatus = "approved"
	ResetRejected  ResetStatus = "rejected"
	ResetCompleted ResetStatus = "completed"
)

var ResetTransitions = Transitions[ResetStatus]{
	ResetPending:  {ResetApproved, ResetRejected},
	ResetApproved: {ResetCompleted},
}

const ResetRequestTTL = 7 * 24 * time.Hour

type PasswordResetRequest struct {
	ID     string `gorm:"type:uuid;primaryKey" json:"id"`
	UserID string `gorm:"type:uuid;index;not null" json:"userId"`
	User   *User  `gorm:"foreignKey:UserID" json:"user,omitempty"`

	Token  string      `gorm:"uniqueIndex;size:64;not null" json:"-"`
	Status ResetStatus `gorm:"size:20;index;not null;default:'pending'" json:"status"`

	Reason        string `gorm:"size:500" json:"reason,omitempty"`
	ApprovalNotes string `gorm:"size:500" json:"approvalNotes,omitempty"`

	ExpiresAt    time.Time  `gorm:"index;not null" json:"expiresAt"`
	ApprovedByID *string    `gorm:"type:uuid" json:"approvedById,omitempty"`
	ApprovedAt   *time.Time `json:"approvedAt,omitempty"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (PasswordResetRequest) TableName() string { return "password_reset_requests" }

func (p *PasswordResetRequest) Expired(now time.Time) bool {
	return now.After(p.ExpiresAt)
}
