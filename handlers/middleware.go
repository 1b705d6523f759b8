package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/golang-jwt/jwt/v4"

	"github.com/albertcolmenero/invoicehub/apperr"
)

const maxJSONBody = 1 << 20

// Response is the standard JSON envelope for all API responses.
type Response struct {
	Data  any    `json:"data"`
	Error string `json:"error,omitempty"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(Response{Data: data})
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(Response{Error: msg})
}

// respondError maps err onto its status and user-facing hint. Server-side
// failures are logged with the full error.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	} else {
		slog.Debug("request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	}
	writeError(w, status, apperr.Hint(err, http.StatusText(status)))
}

// decodeJSON reads a request body of at most maxJSONBody bytes into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return false
	}
	return true
}

type ownerKey struct{}

// OwnerID returns the acting owner put in the context by Authenticate.
func OwnerID(ctx context.Context) string {
	id, _ := ctx.Value(ownerKey{}).(string)
	return id
}

// WithOwner returns a copy of ctx acting as ownerID.
func WithOwner(ctx context.Context, ownerID string) context.Context {
	return context.WithValue(ctx, ownerKey{}, ownerID)
}

// Authenticate is middleware that verifies an HS256 bearer token and acts as
// its "sub" claim. Without a secret every request acts as devOwner.
func Authenticate(secret, devOwner string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		// If no secret is configured, skip auth
		if secret == "" {
			slog.Warn("auth.jwt_secret not set, API is unauthenticated", "owner_id", devOwner)
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				next.ServeHTTP(w, r.WithContext(WithOwner(r.Context(), devOwner)))
			})
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			owner, err := verifyToken(r.Header.Get("Authorization"), []byte(secret))
			if err != nil {
				slog.Debug("rejected bearer token", "path", r.URL.Path, "error", err)
				w.Header().Set("WWW-Authenticate", `Bearer realm="invoicehub"`)
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithOwner(r.Context(), owner)))
		})
	}
}

func verifyToken(header string, secret []byte) (string, error) {
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || raw == "" {
		return "", apperr.New("missing bearer token").Mark(apperr.ErrUnauthorized)
	}

	token, err := jwt.Parse(raw, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Newf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return "", apperr.Wrap(err).WithMessage("parsing bearer token").Mark(apperr.ErrUnauthorized)
	}
	if !token.Valid {
		return "", apperr.New("invalid bearer token").Mark(apperr.ErrUnauthorized)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", apperr.New("unexpected claims type").Mark(apperr.ErrUnauthorized)
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", apperr.New("token has no subject").Mark(apperr.ErrUnauthorized)
	}
	return sub, nil
}
