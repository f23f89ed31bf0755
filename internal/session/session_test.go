package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"benchtrack.org/internal/directory"
)

func setSecret(t *testing.T, value string) {
	t.Helper()
	t.Setenv(secretEnvVariable, value)
	ResetSecretForTests()
	t.Cleanup(ResetSecretForTests)
}

func TestGenerateAndValidate(t *testing.T) {
	setSecret(t, "test-secret")

	u := &directory.User{ID: "user-9", Role: directory.RoleInventory}
	token, err := Generate(u, time.Hour)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	claims, err := ParseAndValidate(token)
	if err != nil {
		t.Fatalf("ParseAndValidate: %v", err)
	}
	if claims.Subject != "user-9" {
		t.Fatalf("unexpected subject: %s", claims.Subject)
	}
	p := claims.Principal()
	if p.ID != "user-9" || p.Role != directory.RoleInventory {
		t.Fatalf("unexpected principal: %+v", p)
	}
}

func TestValidateRejectsGarbage(t *testing.T) {
	setSecret(t, "test-secret")

	for _, tok := range []string{"", "   ", "not.a.jwt"} {
		if _, err := ParseAndValidate(tok); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("token %q: got %v, want ErrInvalidToken", tok, err)
		}
	}
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	setSecret(t, "secret-a")
	token, err := Generate(&directory.User{ID: "u1"}, time.Hour)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	setSecret(t, "secret-b")
	if _, err := ParseAndValidate(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("got %v, want ErrInvalidToken", err)
	}
}

func TestGenerateRequiresSecret(t *testing.T) {
	setSecret(t, "")
	if _, err := Generate(&directory.User{ID: "u1"}, time.Hour); err == nil {
		t.Fatal("expected error with no secret configured")
	}
}

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	if _, ok := UserFromContext(ctx); ok {
		t.Fatal("empty context should carry no user")
	}
	u := &directory.User{ID: "u2", Role: directory.RoleAdmin}
	ctx = ContextWithUser(ctx, u)
	got, ok := UserFromContext(ctx)
	if !ok || got.ID != "u2" {
		t.Fatalf("unexpected user: %+v ok=%v", got, ok)
	}
}
