package middleware

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/smartfeastt/smartfeast-backend/access"
	"github.com/smartfeastt/smartfeast-backend/models"
)

const identityKey = "identity"

// ServiceKeyHeader carries the shared secret of trusted backend callers.
const ServiceKeyHeader = "X-Service-Key"

type Claims struct {
	UserID           string          `json:"userId"`
	Email            string          `json:"email"`
	Name             string          `json:"name,omitempty"`
	Role             models.UserRole `json:"type"`
	OwnedRestaurants []string        `json:"ownedRestaurants,omitempty"`
	ManagedOutlets   []string        `json:"managedOutlets,omitempty"`
	jwt.RegisteredClaims
}

// Identity converts verified claims into a caller identity.
func (c *Claims) Identity() access.Identity {
	return access.New(c.UserID, c.Email, c.Role, c.OwnedRestaurants, c.ManagedOutlets)
}

// Authenticator issues and verifies bearer tokens.
type Authenticator struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewAuthenticator(secret []byte, ttl time.Duration, now func() time.Time) *Authenticator {
	if now == nil {
		now = time.Now
	}
	return &Authenticator{secret: secret, ttl: ttl, now: now}
}

// GenerateToken creates a signed JWT for a given user. Owner and manager
// tokens carry a snapshot of their restaurants and outlets.
func (a *Authenticator) GenerateToken(user *models.User, owned, managed []string) (string, error) {
	now := a.now()
	claims := Claims{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	if user.Role == models.RoleOwner || user.Role == models.RoleManager {
		claims.OwnedRestaurants = owned
		claims.ManagedOutlets = managed
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

var errNoToken = errors.New("no bearer token")

// Parse verifies a token string.
func (a *Authenticator) Parse(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return nil, err
	}
	if !token.Valid || !claims.Role.Valid() || claims.UserID == "" {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

func (a *Authenticator) fromHeader(c *gin.Context) (*Claims, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
		return nil, errNoToken
	}
	return a.Parse(strings.TrimPrefix(authHeader, "Bearer "))
}

// AuthRequired validates the JWT and injects the caller identity into context
func (a *Authenticator) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := a.fromHeader(c)
		if errors.Is(err, errNoToken) {
			abort(c, http.StatusUnauthorized, "Token required")
			return
		}
		if err != nil {
			abort(c, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		c.Set(identityKey, claims.Identity())
		c.Next()
	}
}

// AuthOptional injects the caller identity when a valid token is present
// and a Guest otherwise.
func (a *Authenticator) AuthOptional() gin.HandlerFunc {
	return func(c *gin.Context) {
		var id access.Identity = access.Guest{}
		if claims, err := a.fromHeader(c); err == nil {
			id = claims.Identity()
		}
		c.Set(identityKey, id)
		c.Next()
	}
}

// ServiceOrAuth admits trusted services presenting the shared key and
// otherwise requires a bearer token. An empty key disables the service path.
func (a *Authenticator) ServiceOrAuth(serviceKey string) gin.HandlerFunc {
	required := a.AuthRequired()
	return func(c *gin.Context) {
		presented := c.GetHeader(ServiceKeyHeader)
		if serviceKey != "" && presented != "" {
			if subtle.ConstantTimeCompare([]byte(presented), []byte(serviceKey)) != 1 {
				abort(c, http.StatusUnauthorized, "Invalid service key")
				return
			}
			c.Set(identityKey, access.Service{Name: "payments"})
			c.Next()
			return
		}
		required(c)
	}
}

// RoleRequired enforces that caller has one of the allowed roles
func RoleRequired(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := access.Role(GetIdentity(c))
		if ok {
			for _, r := range roles {
				if role == r {
					c.Next()
					return
				}
			}
		}
		abort(c, http.StatusForbidden, "Access denied. Required role(s): "+rolesString(roles))
	}
}

func rolesString(roles []models.UserRole) string {
	parts := make([]string, len(roles))
	for i, r := range roles {
		parts[i] = string(r)
	}
	return strings.Join(parts, ", ")
}

// GetIdentity extracts the caller identity from context
func GetIdentity(c *gin.Context) access.Identity {
	if v, ok := c.Get(identityKey); ok {
		if id, ok := v.(access.Identity); ok {
			return id
		}
	}
	return access.Guest{}
}

func abort(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": msg})
}
