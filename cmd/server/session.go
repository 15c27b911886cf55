package main

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

const sessionCookieName = "ringvirkning_session"

type ctxKey int

const sessionIDKey ctxKey = iota

// cookieService signs the anonymous session id kept in the browser. It carries
// identity only; the simulator has no login.
type cookieService struct {
	secret []byte
	secure bool
}

// newCookieService uses a random key when secret is empty, so cookies do not
// survive a restart.
func newCookieService(secret string, secure bool) (*cookieService, error) {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, err
		}
	}
	return &cookieService{secret: key, secure: secure}, nil
}

func (c *cookieService) sign(payload string) string {
	mac := hmac.New(sha256.New, c.secret)
	_, _ = mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

func (c *cookieService) createValue(sessionID string) string {
	payload := base64.RawURLEncoding.EncodeToString([]byte(sessionID))
	return payload + "." + c.sign(payload)
}

func (c *cookieService) verifyValue(value string) (string, bool) {
	payload, signature, ok := strings.Cut(value, ".")
	if !ok {
		return "", false
	}

	provided, err := hex.DecodeString(signature)
	if err != nil {
		return "", false
	}
	expected, _ := hex.DecodeString(c.sign(payload))
	if !hmac.Equal(provided, expected) {
		return "", false
	}

	decoded, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil || len(decoded) == 0 {
		return "", false
	}
	return string(decoded), true
}

func (c *cookieService) setCookie(w http.ResponseWriter, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    c.createValue(sessionID),
		Path:     "/",
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// middleware attaches the session id from a valid cookie to the request context,
// issuing a fresh id when the cookie is missing or tampered with.
func (c *cookieService) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var id string
		if cookie, err := r.Cookie(sessionCookieName); err == nil {
			id, _ = c.verifyValue(cookie.Value)
		}
		if id == "" {
			id = uuid.NewString()
			c.setCookie(w, id)
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionIDKey, id)))
	})
}

func sessionIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(sessionIDKey).(string)
	return id
}
