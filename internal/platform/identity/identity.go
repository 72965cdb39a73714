package identity

import (
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("identity: invalid token")

// Principal is the authenticated caller attached to a request.
type Principal struct {
	UserID string
	Roles  []string
}

// ResolvePrincipal reads the caller from a Bearer token when one is
// present, otherwise from the X-User-Id and X-Roles headers. The header
// path exists for internal calls and tests; gateways strip those
// headers on external traffic.
func ResolvePrincipal(r *http.Request, secret string) (Principal, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(header, "Bearer ") {
		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		return FromToken(token, secret)
	}

	principal := Principal{
		UserID: strings.TrimSpace(r.Header.Get("X-User-Id")),
	}
	for _, role := range strings.Split(r.Header.Get("X-Roles"), ",") {
		role = strings.TrimSpace(role)
		if role != "" {
			principal.Roles = append(principal.Roles, role)
		}
	}
	return principal, nil
}

// FromToken validates an HS256 token and extracts the subject and roles
// claims.
func FromToken(tokenString string, secret string) (Principal, error) {
	if secret == "" {
		return Principal{}, ErrInvalidToken
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return Principal{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Principal{}, ErrInvalidToken
	}

	principal := Principal{}
	if sub, ok := claims["sub"].(string); ok {
		principal.UserID = strings.TrimSpace(sub)
	}
	if principal.UserID == "" {
		return Principal{}, ErrInvalidToken
	}
	if raw, ok := claims["roles"].([]any); ok {
		for _, item := range raw {
			if role, ok := item.(string); ok && strings.TrimSpace(role) != "" {
				principal.Roles = append(principal.Roles, strings.TrimSpace(role))
			}
		}
	}
	return principal, nil
}

// NewToken mints an HS256 token for the principal. Used by tests and
// local tooling.
func NewToken(principal Principal, secret string) (string, error) {
	claims := jwt.MapClaims{"sub": principal.UserID}
	if len(principal.Roles) > 0 {
		roles := make([]any, 0, len(principal.Roles))
		for _, role := range principal.Roles {
			roles = append(roles, role)
		}
		claims["roles"] = roles
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
