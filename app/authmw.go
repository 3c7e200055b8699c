package app

import (
	"net/http"

	"lab-loan-backend/db"
	"lab-loan-backend/models"
	"lab-loan-backend/policy"
	"lab-loan-backend/session"

	"github.com/gin-gonic/gin"
)

const SessionCookie = "loan_session"

const actorKey = "actor"

// AuthRequired resolves the session cookie to a live, active user and
// stores the policy actor on the context. A session whose user has since
// been deactivated or deleted is dropped on the spot.
func AuthRequired(sess *session.Store, repo *db.Repo) gin.HandlerFunc {
	return func(c *gin.Context) {
		ck, err := c.Request.Cookie(SessionCookie)
		if err != nil || ck.Value == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, H{"error": "unauthorized"})
			return
		}
		as, err := sess.Get(c.Request.Context(), ck.Value)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, H{"error": "invalid session"})
			return
		}
		u, err := repo.FindUserByID(c.Request.Context(), as.UserID)
		if err != nil || u.Status != models.UserActive {
			_ = sess.Delete(c.Request.Context(), ck.Value)
			c.AbortWithStatusJSON(http.StatusUnauthorized, H{"error": "unauthorized"})
			return
		}
		c.Set(actorKey, policy.Actor{ID: u.ID, Role: u.Role, LaboratoryID: u.LaboratoryID})
		c.Set("user", u)
		c.Next()
	}
}

// Actor returns the authenticated caller set by AuthRequired.
func Actor(c *gin.Context) policy.Actor {
	v, _ := c.Get(actorKey)
	a, _ := v.(policy.Actor)
	return a
}

// CurrentUser returns the full user row loaded by AuthRequired.
func CurrentUser(c *gin.Context) *models.User {
	v, _ := c.Get("user")
	u, _ := v.(*models.User)
	return u
}

func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if Actor(c).Role != models.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}

// StaffOnly admits admins and lab staff; fine-grained lab scoping stays in
// the policy package.
func StaffOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		a := Actor(c)
		if a.Role != models.RoleAdmin && !a.Role.LabStaff() {
			c.AbortWithStatusJSON(http.StatusForbidden, H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}
