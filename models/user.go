package models

import "time"

type Role string

const (
	RoleStudent      Role = "student"
	RoleLabAssistant Role = "lab_assistant"
	RoleKepalaLab    Role = "kepala_lab"
	RoleDosen        Role = "dosen"
	RoleAdmin        Role = "admin"
)

var Roles = []Role{RoleStudent, RoleLabAssistant, RoleKepalaLab, RoleDosen, RoleAdmin}

func (r Role) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

// LabStaff roles act on behalf of one laboratory; kepala_lab carries the
// same lab scoping as lab_assistant.
func (r Role) LabStaff() bool { return r == RoleLabAssistant || r == RoleKepalaLab }

type UserStatus string

const (
	UserPendingVerification UserStatus = "pending_verification"
	UserActive              UserStatus = "active"
	UserInactive            UserStatus = "inactive"
)

var UserTransitions = Transitions[UserStatus]{
	UserPendingVerification: {UserActive},
	UserActive:              {UserInactive},
	UserInactive:            {UserActive},
}

type User struct {
	ID           string     `gorm:"type:uuid;primaryKey" json:"id"`
	Email        string     `gorm:"uniqueIndex;size:255;not null" json:"email"`
	FullName     string     `gorm:"size:255;not null" json:"fullName"`
	StudentID    *string    `gorm:"uniqueIndex;size:60" json:"studentId,omitempty"`
	PasswordHash string     `gorm:"size:255;not null" json:"-"`
	Role         Role       `gorm:"size:30;not null;default:'student'" json:"role"`
	Status       UserStatus `gorm:"size:30;not null;default:'pending_verification'" json:"status"`

	// Lab staff must be affiliated; other roles may be.
	LaboratoryID *string     `gorm:"type:uuid;index" json:"laboratoryId,omitempty"`
	Laboratory   *Laboratory `gorm:"foreignKey:LaboratoryID" json:"laboratory,omitempty"`

	ForcePasswordChange bool `gorm:"not null;default:false" json:"forcePasswordChange"`

	LastLoginAt *time.Time `gorm:"index" json:"lastLoginAt,omitempty"`
	LastLoginIP string     `gorm:"size:45" json:"-"`
	LastLoginUA string     `gorm:"size:255" json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (User) TableName() string { return "users" }

func (u *User) SameLab(labID string) bool {
	return u.LaboratoryID != nil && *u.LaboratoryID == labID
}
