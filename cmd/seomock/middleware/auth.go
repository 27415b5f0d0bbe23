package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"seo-assistant/cmd/internal/auth"
	"seo-assistant/cmd/internal/logger"
	"seo-assistant/dto"
)

// ContextSubject is the gin context key holding the authenticated subject.
const ContextSubject = "subject"

var (
	ErrMissingHeader = errors.New("missing_authorization_header")
	ErrInvalidFormat = errors.New("invalid_authorization_header")
	ErrEmptyToken    = errors.New("empty_token")
)

// ExtractBearerToken extracts the Bearer token from the Authorization header.
func ExtractBearerToken(c *gin.Context) (string, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", ErrMissingHeader
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", ErrInvalidFormat
	}

	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", ErrEmptyToken
	}
	return token, nil
}

// BearerAuth verifies the JWT and stores its subject under ContextSubject.
func BearerAuth(jwt *auth.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := ExtractBearerToken(c)
		if err != nil {
			abortUnauthorized(c, err)
			return
		}

		claims, err := jwt.Parse(token)
		if err != nil {
			logger.WarnWithFields("token rejected", logger.Fields{
				"path":  c.Request.URL.Path,
				"error": err.Error(),
			})
			abortUnauthorized(c, errors.New("invalid_token"))
			return
		}

		c.Set(ContextSubject, claims.Subject)
		c.Next()
	}
}

// Subject returns the subject set by BearerAuth.
func Subject(c *gin.Context) string {
	return c.GetString(ContextSubject)
}

func abortUnauthorized(c *gin.Context, err error) {
	c.Header("WWW-Authenticate", "Bearer")
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponseDTO{Error: err.Error()})
}
