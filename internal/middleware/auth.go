package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	callerIDKey = "callerID"
	roleKey     = "callerRole"

	// RoleRider and RoleDriver are the roles carried in access tokens.
	RoleRider  = "rider"
	RoleDriver = "driver"
)

// ErrInvalidToken is returned for a missing, malformed or expired token.
var ErrInvalidToken = errors.New("invalid or expired token")

// Claims are the access token claims issued by the identity service.
type Claims struct {
	UserID string `json:"sub"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Authenticator verifies HS256 access tokens.
type Authenticator struct {
	secret []byte
}

// NewAuthenticator creates a new Authenticator.
func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret)}
}

// Parse validates a token and returns its claims.
func (a *Authenticator) Parse(tokenStr string) (*Claims, error) {
	if tokenStr == "" {
		return nil, ErrInvalidToken
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.UserID == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// Identify adapts Parse to the realtime hub's auth callback.
func (a *Authenticator) Identify(tokenStr string) (string, string, error) {
	claims, err := a.Parse(tokenStr)
	if err != nil {
		return "", "", err
	}
	return claims.UserID, claims.Role, nil
}

// Sign issues a token. Used by tests and local tooling; production tokens
// come from the identity service.
func (a *Authenticator) Sign(userID, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// AuthMiddleware rejects requests without a valid bearer token and stores
// the caller's identity on the context.
func AuthMiddleware(a *Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing Authorization header"})
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid Authorization format"})
			return
		}

		claims, err := a.Parse(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": ErrInvalidToken.Error()})
			return
		}

		c.Set(callerIDKey, claims.UserID)
		c.Set(roleKey, claims.Role)
		c.Next()
	}
}

// RequireRole rejects callers whose token does not carry role.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if CallerRole(c) != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "requires " + role + " role"})
			return
		}
		c.Next()
	}
}

// CallerID returns the authenticated user ID, or "" outside AuthMiddleware.
func CallerID(c *gin.Context) string {
	return c.GetString(callerIDKey)
}

// CallerRole returns the authenticated role, or "" outside AuthMiddleware.
func CallerRole(c *gin.Context) string {
	return c.GetString(roleKey)
}
