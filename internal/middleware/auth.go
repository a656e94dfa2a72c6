// Package middleware provides authentication, authorization, logging and
// rate limiting middleware for the application.
package middleware

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Thejus-u/charity-forum/internal/config"
	"github.com/Thejus-u/charity-forum/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const revokedKeyPrefix = "auth:revoked:"

// UserLookup resolves the subject of a verified token to a stored user.
type UserLookup interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
}

// Claims are the JWT claims issued to users.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Authenticator issues and verifies bearer tokens.
type Authenticator struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
	users    UserLookup
	rdb      *redis.Client
	now      func() time.Time
}

// NewAuthenticator builds an Authenticator from cfg. rdb may be nil, in which
// case revocation is not enforced.
func NewAuthenticator(cfg *config.Config, users UserLookup, rdb *redis.Client) *Authenticator {
	ttl := cfg.JWTTTL
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &Authenticator{
		secret:   []byte(cfg.JWTSecret),
		issuer:   cfg.JWTIssuer,
		audience: cfg.JWTAudience,
		ttl:      ttl,
		users:    users,
		rdb:      rdb,
		now:      time.Now,
	}
}

// IssueToken signs a new token for user.
func (a *Authenticator) IssueToken(user *models.User) (string, error) {
	if len(a.secret) == 0 {
		return "", errors.New("JWT secret not configured")
	}

	now := a.now()
	claims := Claims{
		Role: string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}
	if a.issuer != "" {
		claims.Issuer = a.issuer
	}
	if a.audience != "" {
		claims.Audience = jwt.ClaimStrings{a.audience}
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// Revoke blacklists the token identified by claims until it would expire.
func (a *Authenticator) Revoke(ctx context.Context, claims *Claims) error {
	if a.rdb == nil || claims == nil || claims.ID == "" {
		return nil
	}
	ttl := time.Minute
	if claims.ExpiresAt != nil {
		ttl = claims.ExpiresAt.Sub(a.now())
	}
	if ttl <= 0 {
		return nil
	}
	return a.rdb.Set(ctx, revokedKeyPrefix+claims.ID, "1", ttl).Err()
}

func (a *Authenticator) parse(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}
	if a.audience != "" {
		opts = append(opts, jwt.WithAudience(a.audience))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, opts...)
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	return claims, nil
}

func (a *Authenticator) revoked(ctx context.Context, jti string) bool {
	if a.rdb == nil || jti == "" {
		return false
	}
	n, err := a.rdb.Exists(ctx, revokedKeyPrefix+jti).Result()
	if err != nil {
		Logger.WarnContext(ctx, "token blacklist unavailable", "error", err)
		return false
	}
	return n > 0
}

// authenticate resolves the bearer token on c to a user.
func (a *Authenticator) authenticate(c *fiber.Ctx) (*models.User, *Claims, *models.AppError) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return nil, nil, models.NewUnauthorizedError("Authorization header required")
	}

	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil, nil, models.NewUnauthorizedError("Invalid authorization header format")
	}

	claims, err := a.parse(parts[1])
	if err != nil {
		return nil, nil, models.NewUnauthorizedError("Invalid or expired token")
	}

	userID, err := strconv.ParseUint(claims.Subject, 10, 32)
	if err != nil || userID == 0 {
		return nil, nil, models.NewUnauthorizedError("Invalid user ID in token")
	}

	ctx := c.UserContext()
	if a.revoked(ctx, claims.ID) {
		return nil, nil, models.NewUnauthorizedError("Token has been revoked")
	}

	user, err := a.users.GetByID(ctx, uint(userID))
	if err != nil || user == nil {
		return nil, nil, models.NewUnauthorizedError("User no longer exists")
	}

	return user, claims, nil
}

func attach(c *fiber.Ctx, user *models.User, claims *Claims) {
	c.Locals("userID", user.ID)
	c.Locals("userRole", user.Role)
	c.Locals("tokenClaims", claims)

	ctx := context.WithValue(c.UserContext(), UserIDKey, user.ID)
	ctx = context.WithValue(ctx, UserRoleKey, user.Role)
	c.SetUserContext(ctx)
}

// Required rejects requests without a valid token with 401.
func (a *Authenticator) Required() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, claims, appErr := a.authenticate(c)
		if appErr != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized, appErr)
		}
		attach(c, user, claims)
		return c.Next()
	}
}

// Optional attaches the user when a valid token is present and otherwise
// continues anonymously.
func (a *Authenticator) Optional() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Get("Authorization") == "" {
			return c.Next()
		}
		if user, claims, appErr := a.authenticate(c); appErr == nil {
			attach(c, user, claims)
		}
		return c.Next()
	}
}

// RequireRole authenticates the request and then requires one of roles.
// The role is read from storage, not from the token.
func (a *Authenticator) RequireRole(roles ...models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, claims, appErr := a.authenticate(c)
		if appErr != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized, appErr)
		}
		attach(c, user, claims)

		for _, r := range roles {
			if user.Role == r {
				return c.Next()
			}
		}
		return models.RespondWithError(c, fiber.StatusForbidden,
			models.NewForbiddenError("Insufficient permissions"))
	}
}

// RequireModerator gates a route to moderators and admins.
func (a *Authenticator) RequireModerator() fiber.Handler {
	return a.RequireRole(models.RoleModerator, models.RoleAdmin)
}

// RequireAdmin gates a route to admins.
func (a *Authenticator) RequireAdmin() fiber.Handler {
	return a.RequireRole(models.RoleAdmin)
}

// ClaimsFromCtx returns the verified token claims stored by the auth middleware.
func ClaimsFromCtx(c *fiber.Ctx) *Claims {
	claims, _ := c.Locals("tokenClaims").(*Claims)
	return claims
}
