package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dejobratic/cosrent/internal/rental/domain"
	"github.com/golang-jwt/jwt/v5"
)

func TestIssueAndVerify(t *testing.T) {
	tokens, err := NewTokens("secret", time.Hour)
	if err != nil {
		t.Fatalf("NewTokens() failed: %v", err)
	}

	raw, err := tokens.Issue(domain.Actor{ID: "cust-1", Role: domain.RoleCustomer})
	if err != nil {
		t.Fatalf("Issue() failed: %v", err)
	}

	actor, err := tokens.Verify(raw)
	if err != nil {
		t.Fatalf("Verify() failed: %v", err)
	}
	if actor.ID != "cust-1" || actor.Role != domain.RoleCustomer {
		t.Errorf("unexpected actor %+v", actor)
	}
}

func TestVerifyRejects(t *testing.T) {
	tokens, err := NewTokens("secret", time.Hour)
	if err != nil {
		t.Fatalf("NewTokens() failed: %v", err)
	}
	other, _ := NewTokens("other-secret", time.Hour)
	foreign, err := other.Issue(domain.Actor{ID: "cust-1", Role: domain.RoleAdmin})
	if err != nil {
		t.Fatalf("Issue() failed: %v", err)
	}

	expiring, _ := NewTokens("secret", time.Minute)
	expiring.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, err := expiring.Issue(domain.Actor{ID: "cust-1", Role: domain.RoleCustomer})
	if err != nil {
		t.Fatalf("Issue() failed: %v", err)
	}

	badRole, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role:             "SUPERUSER",
		RegisteredClaims: jwt.RegisteredClaims{Subject: "cust-1", Issuer: issuer},
	}).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	tests := []struct {
		name string
		raw  string
		want error
	}{
		{name: "empty", raw: "", want: ErrMissingToken},
		{name: "garbage", raw: "not-a-token", want: ErrInvalidToken},
		{name: "wrong secret", raw: foreign, want: ErrInvalidToken},
		{name: "expired", raw: expired, want: ErrInvalidToken},
		{name: "unknown role", raw: badRole, want: ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tokens.Verify(tt.raw); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestNewTokensRequiresSecret(t *testing.T) {
	if _, err := NewTokens(" ", time.Hour); err == nil {
		t.Error("expected error for empty secret")
	}
	if _, err := NewTokens("secret", 0); err == nil {
		t.Error("expected error for zero ttl")
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		err    error
	}{
		{header: "Bearer abc", want: "abc"},
		{header: "bearer  abc ", want: "abc"},
		{header: "", err: ErrMissingToken},
		{header: "Basic abc", err: ErrInvalidToken},
		{header: "Bearer", err: ErrInvalidToken},
	}

	for _, tt := range tests {
		got, err := BearerToken(tt.header)
		if tt.err != nil {
			if !errors.Is(err, tt.err) {
				t.Errorf("BearerToken(%q): expected %v, got %v", tt.header, tt.err, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("BearerToken(%q) = %q, %v; want %q", tt.header, got, err, tt.want)
		}
	}
}

func TestActorContext(t *testing.T) {
	if _, ok := ActorFrom(context.Background()); ok {
		t.Fatal("expected no actor on empty context")
	}
	ctx := WithActor(context.Background(), domain.Actor{ID: "admin-1", Role: domain.RoleAdmin})
	actor, ok := ActorFrom(ctx)
	if !ok || !actor.IsAdmin() {
		t.Errorf("unexpected actor %+v", actor)
	}
}
