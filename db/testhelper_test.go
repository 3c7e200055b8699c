package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"lab-loan-backend/models"
	"lab-loan-backend/policy"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// testClock is the fixed "now" repo tests run against.
var testClock = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func newTestRepo(t *testing.T) *Repo {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "app.db")), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	r := NewRepo(conn)
	r.Now = func() time.Time { return testClock }
	return r
}

func seedLab(t *testing.T, r *Repo, code string) *models.Laboratory {
	t.Helper()
	lab := &models.Laboratory{
		ID:     uuid.NewString(),
		Name:   "Lab " + code,
		Code:   code,
		Status: models.LabActive,
	}
	if err := r.DB.Create(lab).Error; err != nil {
		t.Fatalf("seed lab: %v", err)
	}
	return lab
}

func seedUser(t *testing.T, r *Repo, role models.Role, lab *models.Laboratory) *models.User {
	t.Helper()
	u := &models.User{
		ID:           uuid.NewString(),
		Email:        uuid.NewString() + "@example.edu",
		FullName:     "Test " + string(role),
		PasswordHash: "$2a$10$notarealhashnotarealhashnotarea",
		Role:         role,
		Status:       models.UserActive,
	}
	if lab != nil {
		u.LaboratoryID = &lab.ID
	}
	if err := r.DB.Create(u).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func seedEquipment(t *testing.T, r *Repo, lab *models.Laboratory, total int) *models.Equipment {
	t.Helper()
	eq := &models.Equipment{
		ID:                uuid.NewString(),
		LaboratoryID:      lab.ID,
		Code:              "EQ-" + uuid.NewString()[:8],
		Name:              "Oscilloscope",
		TotalQuantity:     total,
		AvailableQuantity: total,
		Condition:         models.ConditionGood,
		Status:            models.EquipmentActive,
	}
	if err := r.DB.Create(eq).Error; err != nil {
		t.Fatalf("seed equipment: %v", err)
	}
	return eq
}

func actorOf(u *models.User) policy.Actor {
	return policy.Actor{ID: u.ID, Role: u.Role, LaboratoryID: u.LaboratoryID}
}

func countAudit(t *testing.T, r *Repo, action string, targetID string) int64 {
	t.Helper()
	var n int64
	q := r.DB.Model(&models.AuditLog{}).Where("action = ?", action)
	if targetID != "" {
		q = q.Where("target_id = ?", targetID)
	}
	if err := q.Count(&n).Error; err != nil {
		t.Fatalf("count audit: %v", err)
	}
	return n
}

func availableOf(t *testing.T, r *Repo, equipmentID string) int {
	t.Helper()
	var eq models.Equipment
	if err := r.DB.First(&eq, "id = ?", equipmentID).Error; err != nil {
		t.Fatalf("load equipment: %v", err)
	}
	return eq.AvailableQuantity
}

func testCtx() context.Context { return context.Background() }
