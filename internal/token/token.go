// Package token issues and validates the signed session tokens that carry
// the claim bundle: user id, tenant id, role set and email.  Access tokens
// are short-lived HS256 JWTs; refresh tokens are opaque random strings of
// which only a SHA-256 hash is persisted.
package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/salesync/field-api/internal/model"
)

// Claims is the decoded, trusted fact set carried by an authenticated
// request.  It is derived at login/refresh time and immutable for the
// token's lifetime; a refresh issues a new bundle.
type Claims struct {
	UserID   uuid.UUID    // subject of the token
	TenantID uuid.UUID    // tenant the user belongs to (zero for system users)
	Roles    []model.Role // role names held at issue time
	Email    string       // user email at issue time
}

// HasRole reports whether the bundle contains the exact role.
func (c *Claims) HasRole(r model.Role) bool {
	for _, held := range c.Roles {
		if held == r {
			return true
		}
	}
	return false
}

// AtLeast reports whether any held role is min or more senior.  admin and
// super_admin rank above every manager role, so they always pass.
func (c *Claims) AtLeast(min model.Role) bool {
	for _, held := range c.Roles {
		if held.AtLeast(min) {
			return true
		}
	}
	return false
}

// IsSuperAdmin reports whether the bundle grants the tenant-override
// capability.
func (c *Claims) IsSuperAdmin() bool { return c.HasRole(model.RoleSuperAdmin) }

// AccessToken is a signed JWT access token along with its expiry.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// RefreshToken is a long-lived opaque token used to obtain new access
// tokens.  Raw goes back to the client; the database stores HashRaw(Raw).
type RefreshToken struct {
	Raw string    // raw token string returned to the client
	Exp time.Time // UTC expiration time
}

// NewAccessToken signs an HS256 JWT embedding the claim bundle.  Standard
// exp/iat claims bound the token lifetime; tenant_id, roles and email ride
// along as custom claims so the guard can authorize without a user lookup.
func NewAccessToken(secret string, c Claims, ttlMin int) (AccessToken, error) {
	exp := time.Now().UTC().Add(time.Duration(ttlMin) * time.Minute)
	roles := make([]string, len(c.Roles))
	for i, r := range c.Roles {
		roles[i] = string(r)
	}
	claims := jwt.MapClaims{
		"sub":       c.UserID.String(),
		"tenant_id": c.TenantID.String(),
		"roles":     roles,
		"email":     c.Email,
		"exp":       exp.Unix(),
		"iat":       time.Now().UTC().Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// ErrInvalidToken is returned for tokens that fail signature, expiry or
// claim-shape validation.
var ErrInvalidToken = errors.New("invalid token")

// ParseAccessToken validates the JWT signature and expiry and decodes the
// claim bundle.  Unknown roles in the token are dropped rather than
// rejected so a role removed from the enum cannot lock every holder out of
// parsing entirely; authorization checks treat the reduced set normally.
func ParseAccessToken(secret, raw string) (*Claims, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return nil, ErrInvalidToken
	}
	mc, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	sub, _ := mc["sub"].(string)
	userID, err := uuid.Parse(sub)
	if err != nil {
		return nil, ErrInvalidToken
	}
	c := &Claims{UserID: userID}
	if s, ok := mc["tenant_id"].(string); ok {
		// A zero tenant id is valid for system-level super admins.
		if tid, err := uuid.Parse(s); err == nil {
			c.TenantID = tid
		}
	}
	if s, ok := mc["email"].(string); ok {
		c.Email = s
	}
	if raw, ok := mc["roles"].([]interface{}); ok {
		for _, v := range raw {
			if s, ok := v.(string); ok {
				if r, err := model.ParseRole(s); err == nil {
					c.Roles = append(c.Roles, r)
				}
			}
		}
	}
	return c, nil
}

// NewRefreshToken returns a cryptographically random token and its expiry.
func NewRefreshToken(ttlDays int) (RefreshToken, error) {
	raw, err := randomHex(48) // 48 bytes -> 96 hex chars
	if err != nil {
		return RefreshToken{}, err
	}
	return RefreshToken{
		Raw: raw,
		Exp: time.Now().UTC().Add(time.Duration(ttlDays) * 24 * time.Hour),
	}, nil
}

// HashRaw returns the SHA-256 hash of a raw refresh token as a hex string.
// Only the hash is stored so a leaked database cannot mint sessions.
func HashRaw(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
