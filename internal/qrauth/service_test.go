package qrauth_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"benchtrack.org/internal/directory"
	"benchtrack.org/internal/qrauth"
	"benchtrack.org/internal/store/memory"
)

func seedUser(t *testing.T, dir *memory.Directory, role directory.Role) *directory.User {
	t.Helper()
	u := &directory.User{Email: "tech@bench.local", FirstName: "Sam", Role: role}
	if err := dir.Users().Create(context.Background(), u); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func TestIssueRedeemRoundTrip(t *testing.T) {
	dir := memory.NewDirectory()
	u := seedUser(t, dir, directory.RoleEngineer)
	svc := qrauth.NewService(qrauth.NewInMemoryStore(), dir.Users())
	ctx := context.Background()

	token, err := svc.Issue(ctx, u.ID)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if token == "" {
		t.Fatal("empty token issued")
	}

	got, err := svc.Redeem(ctx, token)
	if err != nil {
		t.Fatalf("Redeem: %v", err)
	}
	if got.ID != u.ID {
		t.Fatalf("redeemed wrong user: got %s, want %s", got.ID, u.ID)
	}
}

func TestRedeemIsSingleUse(t *testing.T) {
	dir := memory.NewDirectory()
	u := seedUser(t, dir, directory.RoleInventory)
	svc := qrauth.NewService(qrauth.NewInMemoryStore(), dir.Users())
	ctx := context.Background()

	token, err := svc.Issue(ctx, u.ID)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := svc.Redeem(ctx, token); err != nil {
		t.Fatalf("first redeem: %v", err)
	}
	if _, err := svc.Redeem(ctx, token); !errors.Is(err, qrauth.ErrInvalidOrExpired) {
		t.Fatalf("second redeem: got %v, want ErrInvalidOrExpired", err)
	}
}

func TestRedeemExpired(t *testing.T) {
	dir := memory.NewDirectory()
	u := seedUser(t, dir, directory.RoleEngineer)

	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	svc := qrauth.NewService(qrauth.NewInMemoryStore(), dir.Users(),
		qrauth.WithClock(clock), qrauth.WithTTL(time.Millisecond))

	token, err := svc.Issue(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	now = now.Add(10 * time.Millisecond)
	if _, err := svc.Redeem(context.Background(), token); !errors.Is(err, qrauth.ErrInvalidOrExpired) {
		t.Fatalf("expired redeem: got %v, want ErrInvalidOrExpired", err)
	}
}

func TestRedeemUnknownToken(t *testing.T) {
	dir := memory.NewDirectory()
	seedUser(t, dir, directory.RoleEngineer)
	svc := qrauth.NewService(qrauth.NewInMemoryStore(), dir.Users())

	if _, err := svc.Redeem(context.Background(), "no-such-token"); !errors.Is(err, qrauth.ErrInvalidOrExpired) {
		t.Fatalf("got %v, want ErrInvalidOrExpired", err)
	}
	if _, err := svc.Redeem(context.Background(), ""); !errors.Is(err, qrauth.ErrInvalidOrExpired) {
		t.Fatalf("empty token: got %v, want ErrInvalidOrExpired", err)
	}
}

func TestIssueUnknownUser(t *testing.T) {
	dir := memory.NewDirectory()
	svc := qrauth.NewService(qrauth.NewInMemoryStore(), dir.Users())

	if _, err := svc.Issue(context.Background(), "ghost"); !errors.Is(err, qrauth.ErrUnknownUser) {
		t.Fatalf("got %v, want ErrUnknownUser", err)
	}
}

func TestMultipleLiveTokensPerUser(t *testing.T) {
	dir := memory.NewDirectory()
	u := seedUser(t, dir, directory.RoleAdmin)
	svc := qrauth.NewService(qrauth.NewInMemoryStore(), dir.Users())
	ctx := context.Background()

	t1, err := svc.Issue(ctx, u.ID)
	if err != nil {
		t.Fatalf("Issue t1: %v", err)
	}
	t2, err := svc.Issue(ctx, u.ID)
	if err != nil {
		t.Fatalf("Issue t2: %v", err)
	}
	if t1 == t2 {
		t.Fatal("expected independent tokens")
	}
	if _, err := svc.Redeem(ctx, t1); err != nil {
		t.Fatalf("redeem t1: %v", err)
	}
	// Burning one token must not touch the other.
	if _, err := svc.Redeem(ctx, t2); err != nil {
		t.Fatalf("redeem t2: %v", err)
	}
}

func TestConcurrentRedeemExactlyOnce(t *testing.T) {
	dir := memory.NewDirectory()
	u := seedUser(t, dir, directory.RoleInventory)
	svc := qrauth.NewService(qrauth.NewInMemoryStore(), dir.Users())
	ctx := context.Background()

	token, err := svc.Issue(ctx, u.ID)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	const N = 50
	var (
		wg        sync.WaitGroup
		succeeded int64
		rejected  int64
	)
	for i := 0; i < N; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Redeem(ctx, token)
			switch {
			case err == nil:
				atomic.AddInt64(&succeeded, 1)
			case errors.Is(err, qrauth.ErrInvalidOrExpired):
				atomic.AddInt64(&rejected, 1)
			default:
				t.Errorf("unexpected redeem error: %v", err)
			}
		}()
	}
	wg.Wait()

	if succeeded != 1 {
		t.Fatalf("expected exactly one successful redemption, got %d", succeeded)
	}
	if rejected != N-1 {
		t.Fatalf("expected %d rejections, got %d", N-1, rejected)
	}
}
