package handler

import (
	"complaintportal/backend/internal/config"
	"complaintportal/backend/internal/models"
	"complaintportal/backend/internal/storage"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	jwt "github.com/golang-jwt/jwt/v5"
)

// Context keys set by AuthMiddleware.
const (
	ctxUserID = "userID"
	ctxRole   = "role"
	ctxJTI    = "jti"
	ctxExpiry = "exp"
)

var errBadCredentials = errors.New("invalid username or password")

// Claims are the portal's JWT claims. Subject is the user id.
type Claims struct {
	Role models.Role `json:"role"`
	jwt.RegisteredClaims
}

// IssueToken signs an HS256 token for userID acting as role.
func (h *Handler) IssueToken(userID string, role models.Role) (string, error) {
	now := h.Now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ID:        uuid.New().String(),
			Issuer:    config.TokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(config.TokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(h.Secret)
}

// parseJWT validates signature, algorithm, issuer and expiry.
func (h *Handler) parseJWT(raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return h.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(config.TokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(h.Now),
	)
	if err != nil {
		return nil, err
	}
	if !claims.Role.Valid() {
		return nil, fmt.Errorf("%w: %q", models.ErrUnknownRole, claims.Role)
	}
	return claims, nil
}

// bearerToken reads "Authorization: Bearer ..." and falls back to ?token=
// for browser websocket clients, which cannot set headers.
func bearerToken(c *gin.Context) string {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return c.Query("token")
}

// AuthMiddleware rejects requests without a valid, unrevoked token.
func (h *Handler) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c)
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization token missing"})
			return
		}

		claims, err := h.parseJWT(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token or expired"})
			return
		}

		revoked, err := h.Storage.IsTokenRevoked(claims.ID)
		if err != nil {
			log.Printf("ERROR: revocation check for %s: %v", claims.Subject, err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify token"})
			return
		}
		if revoked {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token has been revoked"})
			return
		}

		c.Set(ctxUserID, claims.Subject)
		c.Set(ctxRole, claims.Role)
		c.Set(ctxJTI, claims.ID)
		c.Set(ctxExpiry, claims.ExpiresAt.Time)
		c.Next()
	}
}

// RequireRole lets the request through only for the listed roles.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := c.Get(ctxRole)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: missing role information"})
			return
		}
		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden: you are not authorized to access this resource"})
	}
}

func currentUser(c *gin.Context) (string, models.Role) {
	role, _ := c.Get(ctxRole)
	r, _ := role.(models.Role)
	return c.GetString(ctxUserID), r
}

// Login returns the login handler for role.
func (h *Handler) Login(role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
			return
		}
		username := strings.TrimSpace(req.Username)

		var profile models.Profile
		switch role {
		case models.RoleAdmin:
			a, err := h.Storage.GetAdminByUsername(username)
			if errors.Is(err, storage.ErrNotFound) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": errBadCredentials.Error()})
				return
			}
			if err != nil {
				log.Printf("ERROR: admin login lookup for %s: %v", username, err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Login failed"})
				return
			}
			if bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(req.Password)) != nil {
				c.JSON(http.StatusUnauthorized, gin.H{"error": errBadCredentials.Error()})
				return
			}
			if !a.IsActive {
				c.JSON(http.StatusForbidden, gin.H{"error": "account is deactivated"})
				return
			}
			profile = models.Profile{ID: a.ID, Username: a.Username, Name: a.FullName}
		default:
			if !checkStatic(h.Accounts[role], username, req.Password) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": errBadCredentials.Error()})
				return
			}
			profile = models.Profile{ID: username, Username: username, Name: username}
		}

		token, err := h.IssueToken(profile.ID, role)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create token"})
			return
		}
		userData, _ := json.Marshal(profile)

		log.Printf("INFO: %s %s logged in", role, username)
		c.JSON(http.StatusOK, models.LoginResponse{Token: token, Role: role, UserData: userData})
	}
}

// checkStatic compares against a configured account. Bcrypt hashes start with "$2".
func checkStatic(accounts map[string]string, username, password string) bool {
	want, ok := accounts[username]
	if !ok {
		return false
	}
	if strings.HasPrefix(want, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(want), []byte(password)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(want), []byte(password)) == 1
}

// Logout revokes the caller's token until it would have expired.
func (h *Handler) Logout(c *gin.Context) {
	jti := c.GetString(ctxJTI)
	exp := c.GetTime(ctxExpiry)

	if err := h.Storage.RevokeToken(jti, tokenTTLLeft(exp, h.Now())); err != nil {
		log.Printf("ERROR: Failed to revoke token %s: %v", jti, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to log out"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func tokenTTLLeft(exp, now time.Time) time.Duration {
	if d := exp.Sub(now); d > 0 {
		return d
	}
	return 0
}
