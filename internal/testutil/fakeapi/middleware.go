package fakeapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/coursehub-dev/coursehub/internal/models"
)

const (
	bearerPrefix = "Bearer "
	accountKey   = "account"
)

var (
	ErrMissingAuthHeader = errors.New("missing authorization header")
	ErrInvalidAuthFormat = errors.New("invalid authorization header format")
	ErrEmptyToken        = errors.New("empty token")
)

func extractBearerToken(authHeader string) (string, error) {
	if authHeader == "" {
		return "", ErrMissingAuthHeader
	}

	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return "", ErrInvalidAuthFormat
	}

	token := strings.TrimPrefix(authHeader, bearerPrefix)
	if token == "" {
		return "", ErrEmptyToken
	}

	return token, nil
}

func (s *Server) respondWithError(c *gin.Context, statusCode int, err error, message string) {
	s.logger.Debug().Err(err).Int("status", statusCode).Msg(message)
	c.JSON(statusCode, gin.H{"error": message})
	c.Abort()
}

// requireAuth resolves the bearer token to an account or answers 401
func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := extractBearerToken(c.GetHeader("Authorization"))
		if err != nil {
			s.respondWithError(c, http.StatusUnauthorized, err, "Unauthorized")
			return
		}

		claims, err := s.tokens.parse(token)
		if err != nil {
			s.respondWithError(c, http.StatusUnauthorized, err, "Invalid or expired token")
			return
		}

		acct, ok := s.accountByID(claims.Subject)
		if !ok {
			s.respondWithError(c, http.StatusUnauthorized, errors.New("unknown subject"), "User not found")
			return
		}

		c.Set(accountKey, acct)
		c.Next()
	}
}

// requireRole answers 403 unless the caller has one of roles
func (s *Server) requireRole(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		acct := currentAccount(c)
		for _, r := range roles {
			if acct.Role == r {
				c.Next()
				return
			}
		}
		s.respondWithError(c, http.StatusForbidden, errors.New("role not allowed"), "Access denied")
	}
}

func currentAccount(c *gin.Context) account {
	v, _ := c.Get(accountKey)
	acct, _ := v.(account)
	return acct
}
