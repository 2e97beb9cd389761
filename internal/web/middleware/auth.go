package middleware

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"

	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/kozaktomas/attendance/internal/config"
)

type contextKey string

const adminContextKey contextKey = "admin"

// RequireAdmin is middleware that guards administrative routes with HTTP Basic
// auth checked against the configured bcrypt credential. Without a configured
// credential the routes answer 503.
func RequireAdmin(cfg config.AdminConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.Configured() {
				writeJSONError(w, http.StatusServiceUnavailable, "admin credentials not configured")
				return
			}

			username, password, ok := r.BasicAuth()
			if !ok || !checkCredentials(cfg, username, password) {
				log.WithFields(log.Fields{
					"remote": r.RemoteAddr,
					"path":   r.URL.Path,
				}).Warn("Rejected admin request")
				w.Header().Set("WWW-Authenticate", `Basic realm="attendance", charset="UTF-8"`)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			ctx := context.WithValue(r.Context(), adminContextKey, username)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

func checkCredentials(cfg config.AdminConfig, username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(cfg.Username)) == 1
	// Always run bcrypt so a wrong username costs the same as a wrong password.
	passOK := bcrypt.CompareHashAndPassword([]byte(cfg.PasswordHash), []byte(password)) == nil
	return userOK && passOK
}

// GetAdminFromContext returns the authenticated admin username, or "" outside admin routes.
func GetAdminFromContext(ctx context.Context) string {
	name, _ := ctx.Value(adminContextKey).(string)
	return name
}
