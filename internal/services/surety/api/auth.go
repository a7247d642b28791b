package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const callerContextKey = "caller_id"

// Authenticator mints and verifies the HMAC-signed bearer tokens that carry
// caller identity. The subject claim is the ledger caller ID; there is no
// key management beyond the shared secret.
type Authenticator struct {
	secret []byte
}

// NewAuthenticator creates an authenticator over the shared HMAC secret.
func NewAuthenticator(secret string) (*Authenticator, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("jwt secret is required")
	}
	return &Authenticator{secret: []byte(secret)}, nil
}

// Mint signs a token whose subject is the provided caller identity.
func (a *Authenticator) Mint(subject string, ttl time.Duration) (string, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return "", errors.New("subject is required")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// Verify parses a signed token and returns its subject.
func (a *Authenticator) Verify(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("parse token: %w", err)
	}
	subject, err := token.Claims.GetSubject()
	if err != nil || strings.TrimSpace(subject) == "" {
		return "", errors.New("token subject is required")
	}
	return subject, nil
}

// Middleware authenticates requests and stores the caller identity in the
// gin context.
func (a *Authenticator) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		scheme, token, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "bearer token is required"})
			return
		}
		subject, err := a.Verify(strings.TrimSpace(token))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(callerContextKey, subject)
		c.Next()
	}
}

// CallerID returns the authenticated caller stored by the middleware.
func CallerID(c *gin.Context) string {
	value, ok := c.Get(callerContextKey)
	if !ok {
		return ""
	}
	caller, _ := value.(string)
	return caller
}
