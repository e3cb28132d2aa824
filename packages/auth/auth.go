package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"droneanalytics/packages/apperrors"
	"droneanalytics/packages/config"
)

const claimsKey = "jwt_claims"

const (
	providerAttempts   = 5
	providerRetryDelay = 2 * time.Second
)

// TokenVerifier проверяет bearer-токен и возвращает его claims
type TokenVerifier interface {
	Verify(ctx context.Context, rawToken string) (map[string]any, error)
}

// Middleware - проверка токенов Keycloak и ролей realm
type Middleware struct {
	cfg      config.AuthConfig
	verifier TokenVerifier
	logger   *zap.Logger
}

func New(cfg config.AuthConfig, logger *zap.Logger) *Middleware {
	return NewWithVerifier(cfg, &oidcVerifier{cfg: cfg, logger: logger}, logger)
}

func NewWithVerifier(cfg config.AuthConfig, verifier TokenVerifier, logger *zap.Logger) *Middleware {
	return &Middleware{cfg: cfg, verifier: verifier, logger: logger}
}

// oidcVerifier создает OIDC провайдер при первом запросе
type oidcVerifier struct {
	cfg    config.AuthConfig
	logger *zap.Logger

	once     sync.Once
	verifier *oidc.IDTokenVerifier
	err      error
}

// issuerURL: вне контейнера имя keycloak недоступно, используем localhost
func (o *oidcVerifier) issuerURL() string {
	issuer := o.cfg.Issuer
	if o.cfg.DevMode {
		issuer = strings.Replace(issuer, "keycloak:", "localhost:", 1)
	}
	return issuer
}

func (o *oidcVerifier) init(ctx context.Context) error {
	o.once.Do(func() {
		issuer := o.issuerURL()
		if issuer == "" {
			o.err = errors.New("oidc issuer is not configured")
			return
		}

		var err error
		for attempt := 1; attempt <= providerAttempts; attempt++ {
			var provider *oidc.Provider
			if provider, err = oidc.NewProvider(ctx, issuer); err == nil {
				o.verifier = provider.Verifier(&oidc.Config{
					ClientID:          o.cfg.ClientID,
					SkipIssuerCheck:   o.cfg.SkipChecks,
					SkipClientIDCheck: o.cfg.SkipChecks,
				})
				o.logger.Info("OIDC provider ready", zap.String("issuer", issuer))
				return
			}

			o.logger.Warn("OIDC provider unavailable", zap.Int("attempt", attempt), zap.Error(err))
			if attempt < providerAttempts {
				time.Sleep(providerRetryDelay)
			}
		}
		o.err = fmt.Errorf("oidc provider %s unavailable: %w", issuer, err)
	})
	return o.err
}

func (o *oidcVerifier) Verify(ctx context.Context, rawToken string) (map[string]any, error) {
	if err := o.init(context.WithoutCancel(ctx)); err != nil {
		return nil, err
	}

	token, err := o.verifier.Verify(ctx, rawToken)
	if err != nil {
		return nil, fmt.Errorf("verify token: %w", err)
	}

	var claims map[string]any
	if err := token.Claims(&claims); err != nil {
		return nil, fmt.Errorf("decode claims: %w", err)
	}
	return claims, nil
}

// Пути без аутентификации
var publicPaths = map[string]bool{
	"/ping":    true,
	"/metrics": true,
}

func abort(c *gin.Context, err *apperrors.AppError) {
	c.AbortWithStatusJSON(err.StatusCode, err.Body())
}

func unauthorized(reason string) *apperrors.AppError {
	return apperrors.ErrUnauthorized.WithDetails(map[string]any{"reason": reason})
}

// devClaims - фиктивный пользователь для локальной разработки
func (m *Middleware) devClaims() map[string]any {
	return map[string]any{
		"sub":                "dev-user",
		"preferred_username": "developer",
		"realm_access":       map[string]any{"roles": []any{m.cfg.AdminRole, "user"}},
	}
}

// bearerToken достает токен из заголовка Authorization
func bearerToken(header string) (string, *apperrors.AppError) {
	if header == "" {
		return "", unauthorized("missing authorization header")
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", unauthorized("invalid authorization format, expected 'Bearer <token>'")
	}
	if token = strings.TrimSpace(token); token == "" {
		return "", unauthorized("empty bearer token")
	}
	return token, nil
}

func (m *Middleware) JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if publicPaths[c.Request.URL.Path] {
			c.Next()
			return
		}

		if m.cfg.DevMode {
			c.Set(claimsKey, m.devClaims())
			c.Next()
			return
		}

		token, appErr := bearerToken(c.GetHeader("Authorization"))
		if appErr != nil {
			abort(c, appErr)
			return
		}

		claims, err := m.verifier.Verify(c.Request.Context(), token)
		if err != nil {
			m.logger.Debug("Token rejected", zap.Error(err))
			abort(c, unauthorized(err.Error()))
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

// RequireRealmRole пропускает только пользователей с ролью realm
func (m *Middleware) RequireRealmRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.cfg.DevMode {
			c.Next()
			return
		}

		claims, ok := c.Value(claimsKey).(map[string]any)
		if !ok {
			abort(c, unauthorized("missing token claims"))
			return
		}
		if !hasRealmRole(claims, role) {
			abort(c, apperrors.ErrForbidden.WithDetails(map[string]any{"required": role}))
			return
		}

		c.Next()
	}
}

func hasRealmRole(claims map[string]any, role string) bool {
	access, _ := claims["realm_access"].(map[string]any)
	roles, _ := access["roles"].([]any)
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

// GetUsername возвращает имя пользователя из claims запроса
func GetUsername(c *gin.Context) (string, bool) {
	claims, ok := c.Value(claimsKey).(map[string]any)
	if !ok {
		return "", false
	}

	for _, key := range []string{"preferred_username", "email", "sub"} {
		if name, ok := claims[key].(string); ok && name != "" {
			return name, true
		}
	}
	return "", false
}
