package ginserver

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
)

const principalContextKey = "rentals.principal"

const roleAdmin = "admin"

type principal struct {
	ID   string
	Role string
}

func (p principal) IsAdmin() bool {
	return strings.EqualFold(p.Role, roleAdmin)
}

// AuthMiddleware verifies HS256 bearer tokens issued by the identity service.
// Requests without a token pass through anonymous; a token that fails
// verification is rejected outright.
type AuthMiddleware struct {
	Secret []byte
	Logger *slog.Logger
}

func (m AuthMiddleware) Handle(c *gin.Context) {
	token := extractBearerToken(c.GetHeader("Authorization"))
	if token == "" {
		c.Next()
		return
	}
	p, err := m.verify(token)
	if err != nil {
		if m.Logger != nil {
			m.Logger.Debug("token validation failed", "error", err)
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token", "kind": "unauthenticated"})
		return
	}
	setPrincipal(c, p)
	c.Next()
}

var errMissingSubject = errors.New("token carries no user id")

func (m AuthMiddleware) verify(raw string) (principal, error) {
	if len(m.Secret) == 0 {
		return principal{}, errors.New("auth: secret not configured")
	}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	claims := jwt.MapClaims{}
	if _, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return m.Secret, nil
	}); err != nil {
		return principal{}, err
	}
	id := claimString(claims, "userId")
	if id == "" {
		id = claimString(claims, "sub")
	}
	if id == "" {
		return principal{}, errMissingSubject
	}
	return principal{ID: id, Role: claimString(claims, "role")}, nil
}

func claimString(claims jwt.MapClaims, key string) string {
	v, ok := claims[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func setPrincipal(c *gin.Context, p principal) {
	c.Set(principalContextKey, p)
}

func currentPrincipal(c *gin.Context) (principal, bool) {
	val, exists := c.Get(principalContextKey)
	if !exists {
		return principal{}, false
	}
	p, ok := val.(principal)
	return p, ok
}

func requireUser(c *gin.Context) (principal, bool) {
	p, ok := currentPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required", "kind": "unauthenticated"})
		return principal{}, false
	}
	return p, true
}

func extractBearerToken(header string) string {
	if header == "" {
		return ""
	}
	if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
