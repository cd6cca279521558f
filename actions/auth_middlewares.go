package actions

import (
	"crypto/subtle"
	"fmt"
	"strconv"
	"strings"

	"github.com/dgrijalva/jwt-go"
	"github.com/gin-gonic/gin"

	"github.com/qgatssdev/nika/logger"
)

// ParseToken validates an HS256 token issued by the authentication service
func ParseToken(tokenString string, secret string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// Don't forget to validate the alg is what you expect:
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("Unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if token == nil {
		return jwt.MapClaims{}, fmt.Errorf("Invalid token")
	}
	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return jwt.MapClaims{}, err
}

// claimUserID reads the user id from the "id" claim, falling back to "sub"
func claimUserID(claims jwt.MapClaims) (uint64, error) {
	for _, name := range []string{"id", "sub"} {
		switch value := claims[name].(type) {
		case float64:
			if value > 0 && value == float64(uint64(value)) {
				return uint64(value), nil
			}
		case string:
			if id, err := strconv.ParseUint(value, 10, 64); err == nil && id > 0 {
				return id, nil
			}
		}
	}
	return 0, fmt.Errorf("token does not carry a user id")
}

// Restrict only allows requests carrying a valid bearer token and stores the user id in the context
func (actions *Actions) Restrict() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logger.GetLogger(c)
		token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if token == "" {
			log.Warn().Str("section", "restrict").Msg("Missing token")
			abortWithError(c, Unauthorized, "Unauthorized")
			return
		}

		claims, err := ParseToken(token, actions.jwtTokenSecret)
		// check that the token is valid
		if err != nil {
			_ = c.Error(err)
			log.Warn().Err(err).Str("section", "restrict:token").Msg("Invalid token received")
			abortWithError(c, Unauthorized, "Unauthorized")
			return
		}
		userID, err := claimUserID(claims)
		if err != nil {
			_ = c.Error(err)
			log.Warn().Err(err).Str("section", "restrict:token").Msg("Unable to load user id from token")
			abortWithError(c, AccessDenied, "Access denied")
			return
		}

		c.Set("auth_user_id", userID)
		c.Next()
	}
}

// CheckWebhookSecret authenticates the execution layer posting trades.
// The check is skipped when no secret is configured.
func (actions *Actions) CheckWebhookSecret() gin.HandlerFunc {
	return func(c *gin.Context) {
		if actions.webhookSecret == "" {
			c.Next()
			return
		}
		secret := c.GetHeader("X-Webhook-Secret")
		if subtle.ConstantTimeCompare([]byte(secret), []byte(actions.webhookSecret)) != 1 {
			log := logger.GetLogger(c)
			log.Warn().Str("section", "webhook").Msg("Invalid webhook secret")
			abortWithError(c, Unauthorized, "Unauthorized")
			return
		}
		c.Next()
	}
}

// AdminOnly allows requests carrying the configured admin api key.
// Admin routes are closed when no key is configured.
func (actions *Actions) AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey := c.GetHeader("X-Api-Key")
		if actions.adminAPIKey == "" || subtle.ConstantTimeCompare([]byte(apiKey), []byte(actions.adminAPIKey)) != 1 {
			log := logger.GetLogger(c)
			log.Warn().Str("section", "admin").Msg("Invalid access to admin resource")
			abortWithError(c, AccessDenied, "Access Denied")
			return
		}
		c.Next()
	}
}
