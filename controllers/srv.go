// controllers/srv.go
package controllers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"lab-loan-backend/app"
	"lab-loan-backend/db"
	"lab-loan-backend/session"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Srv struct {
	Repo      *db.Repo
	Sess      *session.Store
	WebOrigin string
	TTL       time.Duration
}

func GetSrv(a *app.App) *Srv {
	return &Srv{
		Repo:      a.Repo,
		Sess:      a.Sessions(),
		WebOrigin: a.Config.WebOrigin,
		TTL:       a.Config.SessionTTL,
	}
}

func (s *Srv) setSessionCookie(w http.ResponseWriter, sessionID string, maxAge time.Duration) {
	secure := strings.HasPrefix(s.WebOrigin, "https://")
	http.SetCookie(w, &http.Cookie{
		Name:     app.SessionCookie,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   secure,
		MaxAge:   int(maxAge / time.Second),
	})
}

func (s *Srv) clearSessionCookie(w http.ResponseWriter) {
	secure := strings.HasPrefix(s.WebOrigin, "https://")
	http.SetCookie(w, &http.Cookie{
		Name:     app.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   secure,
	})
}

func (s *Srv) issueSession(ctx context.Context, w http.ResponseWriter, userID, ip, ua string) error {
	// last-login snapshot is not worth failing a login over
	_ = s.Repo.TouchUserLogin(ctx, userID, ip, ua)
	id := uuid.NewString()
	if err := s.Sess.Create(ctx, id, userID); err != nil {
		return err
	}
	s.setSessionCookie(w, id, s.TTL)
	return nil
}

// meta captures the request metadata stamped onto audit rows.
func meta(c *gin.Context) db.RequestMeta {
	return db.RequestMeta{IP: c.ClientIP(), UserAgent: c.Request.UserAgent()}
}
