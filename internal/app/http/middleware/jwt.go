package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"temple-services/config"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

func abortJSON(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": msg})
}

func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		jwtKey := []byte(config.JWT_SECRET)
		if len(jwtKey) == 0 {
			abortJSON(c, http.StatusInternalServerError, "JWT secret not configured")
			return
		}
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortJSON(c, http.StatusUnauthorized, "Authorization header missing")
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			abortJSON(c, http.StatusUnauthorized, "Bearer token malformed")
			return
		}

		token, err := jwt.Parse(strings.TrimSpace(tokenString), func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return jwtKey, nil
		})
		if err != nil || !token.Valid {
			abortJSON(c, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			abortJSON(c, http.StatusUnauthorized, "Invalid token claims")
			return
		}
		userID := userIDClaim(claims)
		if userID == "" {
			abortJSON(c, http.StatusUnauthorized, "Invalid token claims")
			return
		}

		c.Set("user_id", userID)
		if email, ok := claims["email"].(string); ok {
			c.Set("email", email)
		}
		if role, ok := claims["role"].(string); ok {
			c.Set("role", role)
		}
		c.Next()
	}
}

// userIDClaim accepts user_id (or sub) as a string or a JSON number.
func userIDClaim(claims jwt.MapClaims) string {
	for _, key := range []string{"user_id", "id", "sub"} {
		switch v := claims[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.FormatInt(int64(v), 10)
		}
	}
	return ""
}

func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		value, exists := c.Get("role")
		if !exists {
			abortJSON(c, http.StatusUnauthorized, "Role not found in token")
			return
		}

		if value != role {
			abortJSON(c, http.StatusForbidden, "Access denied")
			return
		}

		c.Next()
	}
}
