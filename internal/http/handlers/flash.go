package handlers

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/campusbook/campusbook/internal/http/views"
)

const flashCookieName = "cb_flash"

func setFlash(c echo.Context, flash views.Flash) {
	flash.Category = normalizeFlashCategory(flash.Category)
	flash.Message = strings.TrimSpace(flash.Message)
	if flash.Message == "" {
		return
	}

	payload, err := json.Marshal(flash)
	if err != nil {
		return
	}

	c.SetCookie(&http.Cookie{
		Name:     flashCookieName,
		Value:    base64.RawURLEncoding.EncodeToString(payload),
		Path:     "/",
		MaxAge:   30,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func popFlash(c echo.Context) *views.Flash {
	cookie, err := c.Cookie(flashCookieName)
	if err != nil || cookie == nil {
		return nil
	}

	c.SetCookie(&http.Cookie{
		Name:     flashCookieName,
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

	var flash views.Flash
	if err := json.Unmarshal(raw, &flash); err != nil {
		return nil
	}

	flash.Category = normalizeFlashCategory(flash.Category)
	flash.Message = strings.TrimSpace(flash.Message)
	if flash.Message == "" {
		return nil
	}
	return &flash
}

func normalizeFlashCategory(category string) string {
	switch strings.ToLower(strings.TrimSpace(category)) {
	case "success", "error":
		return strings.ToLower(strings.TrimSpace(category))
	default:
		return "success"
	}
}
