package store

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/playperu/hooplink/internal/database"
	"github.com/playperu/hooplink/internal/hooplink"
	"github.com/playperu/hooplink/internal/migrations"
	"github.com/playperu/hooplink/internal/roster"
)

func setupDocStore(t *testing.T) *DocStore {
	t.Helper()
	db, err := database.Open(context.Background(), database.MemoryPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := migrations.Run(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewDocStore(db)
}

func TestBlobs(t *testing.T) {
	s := setupDocStore(t)
	ctx := context.Background()

	if _, err := s.GetBlob(ctx, "missing"); !errors.Is(err, roster.ErrBlobNotFound) {
		t.Fatalf("missing blob err = %v, want ErrBlobNotFound", err)
	}

	if err := s.PutBlob(ctx, "k", []byte(`[1]`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.PutBlob(ctx, "k", []byte(`[1,2]`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, err := s.GetBlob(ctx, "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != `[1,2]` {
		t.Errorf("blob = %s, want [1,2]", got)
	}
}

func TestRosterOverDocStore(t *testing.T) {
	s := setupDocStore(t)
	ctx := context.Background()
	m := roster.New(roster.NewBlobRepository(s, slog.Default()))

	g, err := m.Create(ctx, roster.NewGame{Title: "Lunch Run", OrganizerID: "org", MaxPlayers: 1})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	m.Join(ctx, g.ID, hooplink.User{ID: "a", Name: "A"}, "")
	m.Join(ctx, g.ID, hooplink.User{ID: "b", Name: "B"}, "")
	g, _, err = m.Leave(ctx, g.ID, "a")
	if err != nil {
		t.Fatalf("leave: %v", err)
	}
	if len(g.Players) != 1 || g.Players[0].Status != hooplink.StatusConfirmed {
		t.Errorf("roster after leave = %+v", g.Players)
	}

	// Reload through a fresh manager to prove the blob was persisted.
	fresh := roster.New(roster.NewBlobRepository(s, slog.Default()))
	got, res, err := fresh.Get(ctx, g.ID)
	if err != nil || res != roster.OK {
		t.Fatalf("reload: %v %v", res, err)
	}
	if got.Players[0].UserID != "b" {
		t.Errorf("persisted roster = %+v", got.Players)
	}
}

func TestSessions(t *testing.T) {
	s := setupDocStore(t)
	ctx := context.Background()

	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	u := hooplink.User{ID: "u1", Name: "Jordan", Email: "j@example.com", Role: hooplink.RolePlayer}
	token, err := s.CreateSession(ctx, u, time.Hour)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if token == "" {
		t.Fatal("empty token")
	}

	got, err := s.SessionUser(ctx, token)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got != u {
		t.Errorf("user = %+v, want %+v", got, u)
	}

	if _, err := s.SessionUser(ctx, "nope"); !errors.Is(err, ErrNoSession) {
		t.Errorf("unknown token err = %v", err)
	}

	u.Name = "Jordan B"
	u.Phone = "555-0199"
	if err := s.UpdateUser(ctx, u); err != nil {
		t.Fatalf("update user: %v", err)
	}
	got, _ = s.SessionUser(ctx, token)
	if got.Name != "Jordan B" || got.Phone != "555-0199" {
		t.Errorf("updated user = %+v", got)
	}
	if err := s.UpdateUser(ctx, hooplink.User{ID: "ghost"}); !errors.Is(err, ErrNoSession) {
		t.Errorf("update unknown user err = %v", err)
	}

	now = now.Add(2 * time.Hour)
	if _, err := s.SessionUser(ctx, token); !errors.Is(err, ErrNoSession) {
		t.Errorf("expired token err = %v", err)
	}
	n, err := s.PurgeExpiredSessions(ctx)
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if n != 1 {
		t.Errorf("purged = %d, want 1", n)
	}
}

func TestDeleteSession(t *testing.T) {
	s := setupDocStore(t)
	ctx := context.Background()

	token, err := s.CreateSession(ctx, hooplink.User{ID: "u1"}, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteSession(ctx, token); err != nil {
		t.Fatal(err)
	}
	if _, err := s.SessionUser(ctx, token); !errors.Is(err, ErrNoSession) {
		t.Errorf("deleted token err = %v", err)
	}
}

func TestRedisBlobs(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	ctx := context.Background()
	rdb, err := OpenRedis(ctx, url)
	if err != nil {
		t.Fatalf("open redis: %v", err)
	}
	defer rdb.Close()

	prefix := "hooplink-test:" + time.Now().Format("150405.000000") + ":"
	b := NewRedisBlobs(rdb, prefix)
	t.Cleanup(func() { rdb.Del(context.Background(), prefix+"k") })

	if _, err := b.GetBlob(ctx, "k"); !errors.Is(err, roster.ErrBlobNotFound) {
		t.Fatalf("missing blob err = %v", err)
	}
	if err := b.PutBlob(ctx, "k", []byte("[]")); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := b.GetBlob(ctx, "k")
	if err != nil || string(got) != "[]" {
		t.Errorf("get = %q, %v", got, err)
	}
}
