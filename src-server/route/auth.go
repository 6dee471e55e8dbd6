package route

import (
	"log/slog"
	"net"
	"net/http"
	"time"

	"checkin/src-server/model"
	"checkin/src-server/utils"
)

type LoginPage struct {
	PageData
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func Auth(muxer *http.ServeMux, as *utils.AppState) {
	muxer.HandleFunc("GET /admin_login", func(w http.ResponseWriter, r *http.Request) {
		if authenticated, err := model.IsAuthenticated(
			r.Context(), as.BunDB, sessionSecretFromRequest(r), as.Config.GetSessionExpire(),
		); err == nil && authenticated {
			http.Redirect(w, r, "/admin", http.StatusFound)
			return
		}
		render(w, http.StatusOK, "admin_login", LoginPage{PageData{Flash: popFlash(w, r)}})
	})

	// login
	muxer.HandleFunc("POST /admin_login", func(w http.ResponseWriter, r *http.Request) {
		if !as.Config.CheckAdminPassword(r.PostFormValue("password")) {
			slog.Warn("failed admin login", "ip", clientIP(r))
			render(w, http.StatusUnauthorized, "admin_login", LoginPage{PageData{
				Flash: &Flash{Category: FLASH_ERROR, Message: "密碼錯誤"},
			}})
			return
		}

		startTimer := time.Now()
		sessionModel, err := model.CreateSession(r.Context(), as.BunDB, clientIP(r), r.UserAgent())
		if err != nil {
			slog.Error("can't create admin session", "error", err)
			renderError(w, r, http.StatusInternalServerError, "登入失敗", "無法建立登入狀態，請稍後再試")
			return
		}
		as.MetricChans.ObserveWrite(startTimer)

		http.SetCookie(w, &http.Cookie{
			Name:     SessionSecretCookieName,
			Value:    sessionModel.Secret,
			Path:     "/",
			MaxAge:   int(as.Config.GetSessionExpire().Seconds()),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
			Secure:   r.TLS != nil,
		})
		slog.Info("admin logged in", "ip", sessionModel.IpAddress)
		redirectWithFlash(w, r, "/admin", FLASH_SUCCESS, "登入成功")
	})

	// logout
	muxer.HandleFunc("GET /admin_logout", func(w http.ResponseWriter, r *http.Request) {
		if sessionSecret := sessionSecretFromRequest(r); sessionSecret != "" {
			if err := model.DeleteSession(r.Context(), as.BunDB, sessionSecret); err != nil {
				slog.Warn("can't delete admin session", "where", "route/auth.go", "error", err)
			}
		}
		http.SetCookie(w, &http.Cookie{
			Name:     SessionSecretCookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			Expires:  time.Unix(0, 0),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
			Secure:   r.TLS != nil,
		})
		redirectWithFlash(w, r, "/", FLASH_INFO, "已登出")
	})
}
