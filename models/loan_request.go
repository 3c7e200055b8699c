package models

import "time"

type LoanStatus string

const (
	LoanPending  LoanStatus = "pending"
	LoanApproved LoanStatus = "approved"
	LoanRejected LoanStatus = "rejected"
	LoanBorrowed LoanStatus = "borrowed"
	LoanReturned LoanStatus = "returned"
	LoanOverdue  LoanStatus = "overdue"
)

// LoanTransitions is the full lifecycle: rejected and returned are
// terminal, overdue is reached from approved or borrowed once the end date
// has passed, and an overdue loan can still come back.
var LoanTransitions = Transitions[LoanStatus]{
	LoanPending:  {LoanApproved, LoanRejected},
	LoanApproved: {LoanBorrowed, LoanOverdue},
	LoanBorrowed: {LoanReturned, LoanOverdue},
	LoanOverdue:  {LoanReturned},
}

type LoanRequest struct {
	ID            string `gorm:"type:uuid;primaryKey" json:"id"`
	RequestNumber string `gorm:"uniqueIndex;size:20;not null" json:"requestNumber"`

	RequesterID string `gorm:"type:uuid;index;not null" json:"requesterId"`
	Requester   *User  `gorm:"foreignKey:RequesterID" json:"requester,omitempty"`

	EquipmentID string     `gorm:"type:uuid;index;not null" json:"equipmentId"`
	Equipment   *Equipment `gorm:"foreignKey:EquipmentID" json:"equipment,omitempty"`

	// Captured from the equipment at submission time; names the approving
	// authority even if the equipment later moves labs.
	LaboratoryID string `gorm:"type:uuid;index;not null" json:"laboratoryId"`

	QuantityRequested  int       `gorm:"not null" json:"quantityRequested"`
	RequestedStartDate time.Time `gorm:"not null" json:"requestedStartDate"`
	RequestedEndDate   time.Time `gorm:"not null" json:"requestedEndDate"`

	Purpose string `gorm:"size:500" json:"purpose,omitempty"`
	Notes   string `gorm:"size:500" json:"notes,omitempty"`

	Status LoanStatus `gorm:"size:20;index;not null;default:'pending'" json:"status"`

	ApprovedByID    *string    `gorm:"type:uuid" json:"approvedById,omitempty"`
	ApprovedAt      *time.Time `json:"approvedAt,omitempty"`
	BorrowedAt      *time.Time `json:"borrowedAt,omitempty"`
	ReturnedAt      *time.Time `json:"returnedAt,omitempty"`
	RejectionReason string     `gorm:"size:500" json:"rejectionReason,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (LoanRequest) TableName() string { return "loan_requests" }

// Open reports whether the request still holds or may come to hold
// inventory.
func (l *LoanRequest) Open() bool {
	return l.Status == LoanApproved || l.Status == LoanBorrowed || l.Status == LoanOverdue
}
