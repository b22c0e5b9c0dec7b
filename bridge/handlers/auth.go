// Package handlers provides HTTP handlers for the bridge server
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

// Roles carried in bridge tokens.
const (
	RoleUser     = "user"
	RoleOperator = "operator"
)

const tokenIssuer = "vaultbridge"

// Claims are the JWT claims of bridge callers. The subject is the caller's
// principal on the pool side and owner address on the vault side.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// IssueToken signs an HS256 token for subject with role, valid for ttl.
func IssueToken(secret []byte, subject, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
			Subject:   subject,
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// JWTMiddleware authenticates requests with tokens from IssueToken. A missing,
// malformed or invalid token is answered with 401.
func JWTMiddleware(secret []byte) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		SigningKey:    secret,
		SigningMethod: "HS256",
		NewClaimsFunc: func(echo.Context) jwt.Claims {
			return new(Claims)
		},
		ErrorHandler: func(_ echo.Context, err error) error {
			msg := "invalid token"
			if errors.Is(err, echojwt.ErrJWTMissing) {
				msg = "missing token"
			}
			return echo.NewHTTPError(http.StatusUnauthorized, ErrorResponse{Error: msg})
		},
	})
}

// RequireRole rejects callers whose token does not carry role.
func RequireRole(role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := claimsFrom(c)
			if !ok || claims.Role != role {
				return c.JSON(http.StatusForbidden, ErrorResponse{Error: "insufficient role"})
			}
			return next(c)
		}
	}
}

// requireSubject returns the authenticated caller.
func requireSubject(c echo.Context) (string, error) {
	claims, ok := claimsFrom(c)
	if !ok || claims.Subject == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, ErrorResponse{Error: "missing subject"})
	}
	return claims.Subject, nil
}

func claimsFrom(c echo.Context) (*Claims, bool) {
	token, ok := c.Get("user").(*jwt.Token)
	if !ok {
		return nil, false
	}
	claims, ok := token.Claims.(*Claims)
	return claims, ok
}
