package route

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"checkin/src-server/model"
	"checkin/src-server/utils"
)

type SessionCtxKeyType string

const (
	SessionCtxKey           SessionCtxKeyType = "session"
	SessionSecretCookieName string            = "session-secret"
	LoginPath               string            = "/admin_login"
)

func sessionSecretFromRequest(r *http.Request) string {
	sessionCookie, err := r.Cookie(SessionSecretCookieName)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(sessionCookie.Value)
}

// Lets the request through only with a valid admin session. Pages are
// redirected to the login page, JSON endpoints get a 401.
func AdminMiddleware(as *utils.AppState, next func(http.ResponseWriter, *http.Request)) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		deny := func() {
			if strings.HasPrefix(r.URL.Path, "/api/") {
				writeFailure(w, http.StatusUnauthorized, "請先登入管理介面")
				return
			}
			http.Redirect(w, r, LoginPath, http.StatusFound)
		}

		sessionSecret := sessionSecretFromRequest(r)
		if sessionSecret == "" {
			deny()
			return
		}

		startTimer := time.Now()
		sessionModel, err := model.FindValidSession(r.Context(), as.BunDB, sessionSecret, as.Config.GetSessionExpire())
		if err != nil {
			if !errors.Is(err, model.ErrAuth) {
				writeError(w, r, err)
				return
			}
			deny()
			return
		}
		as.MetricChans.ObserveRead(startTimer)

		ctx := context.WithValue(r.Context(), SessionCtxKey, sessionModel)
		next(w, r.WithContext(ctx))
	}
}
