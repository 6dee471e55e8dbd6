package route

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"
)

const FlashCookieName = "flash"

type FlashCategory string

const (
	FLASH_SUCCESS = FlashCategory("success")
	FLASH_WARNING = FlashCategory("warning")
	FLASH_ERROR   = FlashCategory("error")
	FLASH_INFO    = FlashCategory("info")
)

// A one-shot notice shown on the page after a redirect.
type Flash struct {
	Category FlashCategory `json:"category"`
	Message  string        `json:"message"`
}

func setFlash(w http.ResponseWriter, category FlashCategory, message string) {
	value, err := json.Marshal(Flash{Category: category, Message: message})
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     FlashCookieName,
		Value:    base64.RawURLEncoding.EncodeToString(value),
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Reads the pending notice, if any, and clears it.
func popFlash(w http.ResponseWriter, r *http.Request) *Flash {
	cookie, err := r.Cookie(FlashCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}
	http.SetCookie(w, &http.Cookie{
		Name:     FlashCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	raw, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return nil
	}
	flash := new(Flash)
	if err := json.Unmarshal(raw, flash); err != nil {
		return nil
	}
	return flash
}

func redirectWithFlash(w http.ResponseWriter, r *http.Request, url string, category FlashCategory, message string) {
	setFlash(w, category, message)
	http.Redirect(w, r, url, http.StatusFound)
}
