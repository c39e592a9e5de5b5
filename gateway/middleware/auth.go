package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"launchpad/observability/logging"
)

type AuthConfig struct {
	Enabled        bool
	HMACSecret     string
	Issuer         string
	Audience       string
	OptionalPaths  []string
	AllowAnonymous bool
	ClockSkew      time.Duration
}

type contextKey string

const (
	ContextKeyToken   contextKey = "launchpad.token"
	ContextKeySubject contextKey = "launchpad.subject"
)

// Authenticator validates HMAC-signed bearer tokens and exposes the token
// subject to downstream handlers as the caller identity.
type Authenticator struct {
	cfg    AuthConfig
	logger *slog.Logger
	secret []byte
}

func NewAuthenticator(cfg AuthConfig, logger *slog.Logger) *Authenticator {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ClockSkew <= 0 {
		cfg.ClockSkew = 2 * time.Minute
	}
	return &Authenticator{
		cfg:    cfg,
		logger: logger,
		secret: []byte(strings.TrimSpace(cfg.HMACSecret)),
	}
}

// Enabled reports whether requests must carry a token.
func (a *Authenticator) Enabled() bool { return a != nil && a.cfg.Enabled }

func (a *Authenticator) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !a.cfg.Enabled {
				next.ServeHTTP(w, r)
				return
			}
			if a.isOptional(r.URL.Path) && a.cfg.AllowAnonymous {
				next.ServeHTTP(w, r)
				return
			}
			tokenString := extractBearer(r.Header.Get("Authorization"))
			if tokenString == "" {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}
			claims, err := a.parseToken(tokenString)
			if err != nil {
				a.logger.Warn("auth: token validation failed", "error", err, logging.MaskField("token", tokenString))
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
			if err := validateClaims(claims, a.cfg.Issuer, a.cfg.Audience); err != nil {
				a.logger.Warn("auth: claim validation failed", "error", err)
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
			subject, err := claims.GetSubject()
			if err != nil || strings.TrimSpace(subject) == "" {
				http.Error(w, "token subject required", http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), ContextKeyToken, tokenString)
			ctx = context.WithValue(ctx, ContextKeySubject, strings.TrimSpace(subject))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Subject returns the authenticated token subject stored by the middleware.
func Subject(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	subject, ok := ctx.Value(ContextKeySubject).(string)
	return subject, ok && subject != ""
}

func (a *Authenticator) isOptional(path string) bool {
	for _, prefix := range a.cfg.OptionalPaths {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func (a *Authenticator) parseToken(tokenString string) (jwt.MapClaims, error) {
	if len(a.secret) == 0 {
		return nil, errors.New("auth secret not configured")
	}
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	}, jwt.WithLeeway(a.cfg.ClockSkew))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("token invalid")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("claims not map")
	}
	return claims, nil
}

func validateClaims(claims jwt.MapClaims, issuer, audience string) error {
	if issuer != "" {
		if value, ok := claims["iss"].(string); !ok || value != issuer {
			return errors.New("issuer mismatch")
		}
	}
	if audience != "" {
		switch val := claims["aud"].(type) {
		case string:
			if val != audience {
				return errors.New("audience mismatch")
			}
		case []interface{}:
			matched := false
			for _, entry := range val {
				if s, ok := entry.(string); ok && s == audience {
					matched = true
					break
				}
			}
			if !matched {
				return errors.New("audience mismatch")
			}
		default:
			return errors.New("audience mismatch")
		}
	}
	return nil
}

func extractBearer(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
