package session

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// FlashCookieName holds one-shot messages shown by the next rendered page.
const FlashCookieName = "flash"

const pendingKey = "session.flash.pending"

// Flash queues msg for the next rendered page, which is usually the target
// of the redirect issued right after.
func Flash(c echo.Context, msg string) {
	pending, _ := c.Get(pendingKey).([]string)
	pending = append(pending, msg)
	c.Set(pendingKey, pending)
	c.SetCookie(&http.Cookie{
		Name:     FlashCookieName,
		Value:    encodeFlashes(pending),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// HasFlashes reports whether r carries unread flash messages.
func HasFlashes(r *http.Request) bool {
	ck, err := r.Cookie(FlashCookieName)
	return err == nil && ck.Value != ""
}

// Flashes returns and consumes the messages carried by the request plus
// any queued during this request.
func Flashes(c echo.Context) []string {
	var out []string
	if ck, err := c.Cookie(FlashCookieName); err == nil && ck.Value != "" {
		out = append(out, decodeFlashes(ck.Value)...)
	}
	pending, _ := c.Get(pendingKey).([]string)
	out = append(out, pending...)
	c.Set(pendingKey, nil)

	if len(out) > 0 {
		c.SetCookie(&http.Cookie{
			Name:    FlashCookieName,
			Path:    "/",
			MaxAge:  -1,
			Expires: time.Unix(0, 0),
		})
	}
	return out
}

func encodeFlashes(msgs []string) string {
	b, _ := json.Marshal(msgs)
	return base64.RawURLEncoding.EncodeToString(b)
}

func decodeFlashes(v string) []string {
	b, err := base64.RawURLEncoding.DecodeString(v)
	if err != nil {
		return nil
	}
	var msgs []string
	if err := json.Unmarshal(b, &msgs); err != nil {
		return nil
	}
	return msgs
}
