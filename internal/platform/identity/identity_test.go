package identity

import (
	"errors"
	"net/http/httptest"
	"testing"
)

func TestTokenRoundTrip(t *testing.T) {
	token, err := NewToken(Principal{UserID: "user-1", Roles: []string{"member", "super-admin"}}, "secret")
	if err != nil {
		t.Fatalf("mint token failed: %v", err)
	}

	principal, err := FromToken(token, "secret")
	if err != nil {
		t.Fatalf("parse token failed: %v", err)
	}
	if principal.UserID != "user-1" {
		t.Fatalf("expected subject user-1, got %s", principal.UserID)
	}
	if len(principal.Roles) != 2 || principal.Roles[1] != "super-admin" {
		t.Fatalf("unexpected roles: %v", principal.Roles)
	}
}

func TestFromTokenRejectsWrongSecret(t *testing.T) {
	token, err := NewToken(Principal{UserID: "user-1"}, "secret")
	if err != nil {
		t.Fatalf("mint token failed: %v", err)
	}

	if _, err := FromToken(token, "other-secret"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected invalid token with wrong secret, got %v", err)
	}
	if _, err := FromToken(token, ""); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected invalid token with empty secret, got %v", err)
	}
	if _, err := FromToken("not-a-token", "secret"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected invalid token for garbage input, got %v", err)
	}
}

func TestFromTokenRequiresSubject(t *testing.T) {
	token, err := NewToken(Principal{}, "secret")
	if err != nil {
		t.Fatalf("mint token failed: %v", err)
	}
	if _, err := FromToken(token, "secret"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected invalid token without a subject, got %v", err)
	}
}

func TestResolvePrincipalBearerToken(t *testing.T) {
	token, err := NewToken(Principal{UserID: "user-1", Roles: []string{"member"}}, "secret")
	if err != nil {
		t.Fatalf("mint token failed: %v", err)
	}

	req := httptest.NewRequest("GET", "/api/decisions", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	principal, err := ResolvePrincipal(req, "secret")
	if err != nil {
		t.Fatalf("resolve principal failed: %v", err)
	}
	if principal.UserID != "user-1" || len(principal.Roles) != 1 {
		t.Fatalf("unexpected principal: %+v", principal)
	}

	req.Header.Set("Authorization", "Bearer tampered")
	if _, err := ResolvePrincipal(req, "secret"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected invalid token for tampered bearer, got %v", err)
	}
}

func TestResolvePrincipalHeaderFallback(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/decisions", nil)
	req.Header.Set("X-User-Id", "user-2")
	req.Header.Set("X-Roles", "member, chairman, ")

	principal, err := ResolvePrincipal(req, "secret")
	if err != nil {
		t.Fatalf("resolve principal failed: %v", err)
	}
	if principal.UserID != "user-2" {
		t.Fatalf("expected header user, got %s", principal.UserID)
	}
	if len(principal.Roles) != 2 || principal.Roles[0] != "member" || principal.Roles[1] != "chairman" {
		t.Fatalf("unexpected roles: %v", principal.Roles)
	}
}
