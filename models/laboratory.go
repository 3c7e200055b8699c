package models

import "time"

type LabStatus string

const (
	LabActive   LabStatus = "active"
	LabInactive LabStatus = "inactive"
)

type Laboratory struct {
	ID     string    `gorm:"type:uuid;primaryKey" json:"id"`
	Name   string    `gorm:"size:255;not null" json:"name"`
	Code   string    `gorm:"uniqueIndex;size:30;not null" json:"code"`
	Status LabStatus `gorm:"size:20;not null;default:'active'" json:"status"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Laboratory) TableName() string { return "laboratories" }
