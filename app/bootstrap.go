// app/bootstrap.go
package app

import (
	"context"
	"log"

	"lab-loan-backend/models"
	"lab-loan-backend/utils"

	"github.com/google/uuid"
)

// BootstrapFirstAdmin creates the initial admin account from env config so
// a fresh deployment is not locked out. Does nothing once any admin exists.
func BootstrapFirstAdmin(ctx context.Context, a *App) {
	if a.Config.BootstrapAdminEmail == "" || a.Config.BootstrapAdminPassword == "" {
		return
	}
	var n int64
	if err := a.DB.WithContext(ctx).Model(&models.User{}).
		Where("role = ?", models.RoleAdmin).
		Count(&n).Error; err != nil {
		log.Printf("bootstrap admin check failed: %v", err)
		return
	}
	if n > 0 {
		return
	}
	hash, err := utils.HashPassword(a.Config.BootstrapAdminPassword)
	if err != nil {
		log.Printf("bootstrap admin hash failed: %v", err)
		return
	}
	admin := &models.User{
		ID:           uuid.NewString(),
		Email:        a.Config.BootstrapAdminEmail,
		FullName:     "Administrator",
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		Status:       models.UserActive,
	}
	if err := a.DB.WithContext(ctx).Create(admin).Error; err != nil {
		log.Printf("bootstrap admin create failed: %v", err)
		return
	}
	log.Printf("[BOOTSTRAP] Created first admin %s", admin.Email)
}
