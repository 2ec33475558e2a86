package web

import (
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
)

const sessionName = "bookinghub_session"

const sessionTTL = 14 * 24 * time.Hour

// SessionManager issues the operator cookie set by POST /login.
type SessionManager struct{ sc *securecookie.SecureCookie }

func NewSessionManager(hashKey, blockKey []byte) *SessionManager {
	sc := securecookie.New(hashKey, blockKey)
	sc.MaxAge(int(sessionTTL.Seconds()))
	return &SessionManager{sc: sc}
}

func (s *SessionManager) SetOperator(w http.ResponseWriter, r *http.Request, operator string) error {
	value := map[string]string{"op": operator}
	encoded, err := s.sc.Encode(sessionName, value)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name: sessionName, Value: encoded, Path: "/",
		HttpOnly: true, SameSite: http.SameSiteLaxMode,
		Secure: r.TLS != nil,
		MaxAge: int(sessionTTL.Seconds()),
	})
	return nil
}

func (s *SessionManager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name: sessionName, Value: "", Path: "/", MaxAge: -1,
		HttpOnly: true, SameSite: http.SameSiteLaxMode,
	})
}

func (s *SessionManager) Operator(r *http.Request) (string, bool) {
	c, err := r.Cookie(sessionName)
	if err != nil {
		return "", false
	}
	value := map[string]string{}
	if err := s.sc.Decode(sessionName, c.Value, &value); err != nil {
		return "", false
	}
	op := value["op"]
	if op == "" {
		return "", false
	}
	return op, true
}
