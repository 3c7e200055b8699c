package models

import "time"

type EquipmentStatus string

const (
	EquipmentActive      EquipmentStatus = "active"
	EquipmentMaintenance EquipmentStatus = "maintenance"
	EquipmentRetired     EquipmentStatus = "retired"
)

type Condition string

const (
	ConditionExcellent Condition = "excellent"
	ConditionGood      Condition = "good"
	ConditionFair      Condition = "fair"
	ConditionPoor      Condition = "poor"
)

func (c Condition) Valid() bool {
	switch c {
	case ConditionExcellent, ConditionGood, ConditionFair, ConditionPoor:
		return true
	}
	return false
}

type Equipment struct {
	ID           string      `gorm:"type:uuid;primaryKey" json:"id"`
	LaboratoryID string      `gorm:"type:uuid;index;not null" json:"laboratoryId"`
	Laboratory   *Laboratory `gorm:"foreignKey:LaboratoryID" json:"laboratory,omitempty"`

	Code string `gorm:"uniqueIndex;size:60;not null" json:"code"`
	Name string `gorm:"size:255;not null" json:"name"`

	// 0 <= AvailableQuantity <= TotalQuantity at every commit point; only
	// loan transitions move AvailableQuantity.
	TotalQuantity     int `gorm:"not null;default:0" json:"totalQuantity"`
	AvailableQuantity int `gorm:"not null;default:0" json:"availableQuantity"`

	Condition Condition       `gorm:"size:20;not null;default:'good'" json:"condition"`
	Status    EquipmentStatus `gorm:"size:20;not null;default:'active'" json:"status"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Equipment) TableName() string { return "equipment" }
