// Package roster manages game collections and the confirmed/waitlist state
// of each game's player list.
//
// Every operation loads the whole game collection from the Repository,
// mutates an in-memory copy, and saves the whole collection back. A Manager
// serializes those cycles within one process; across processes the store is
// last-write-wins.
package roster

import (
	"cmp"
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/playperu/hooplink/internal/hooplink"
)

// Result tags the outcome of an operation. It is only meaningful when the
// accompanying error is nil.
type Result int

const (
	OK Result = iota
	AlreadyJoined
	NotFound
)

func (r Result) String() string {
	switch r {
	case OK:
		return "ok"
	case AlreadyJoined:
		return "already_joined"
	case NotFound:
		return "not_found"
	}
	return fmt.Sprintf("Result(%d)", int(r))
}

const (
	DefaultMaxPlayers = 10
	idLength          = 9
	idAlphabet        = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// NewGame holds the organizer-supplied fields of a game.
type NewGame struct {
	Title         string
	OrganizerID   string
	OrganizerName string
	Date          string
	Time          string
	Location      string
	LocationURL   string
	MaxPlayers    int
	SkillLevel    hooplink.SkillLevel
	Notes         string
}

// GamePatch overwrites the non-nil fields of a game. The roster is never
// touched.
type GamePatch struct {
	Title       *string              `json:"title,omitempty"`
	Date        *string              `json:"date,omitempty"`
	Time        *string              `json:"time,omitempty"`
	Location    *string              `json:"location,omitempty"`
	LocationURL *string              `json:"locationUrl,omitempty"`
	MaxPlayers  *int                 `json:"maxPlayers,omitempty"`
	SkillLevel  *hooplink.SkillLevel `json:"skillLevel,omitempty"`
	Notes       *string              `json:"notes,omitempty"`
	IsLocked    *bool                `json:"isLocked,omitempty"`
}

// EntryPatch overwrites the non-nil fields of one roster entry.
type EntryPatch struct {
	Name   *string                `json:"name,omitempty"`
	Phone  *string                `json:"phone,omitempty"`
	Status *hooplink.PlayerStatus `json:"status,omitempty"`
}

type Manager struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
	newID  func() string

	mu sync.Mutex
}

type Option func(*Manager)

func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// WithClock replaces time.Now for timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithIDs replaces the random id generator.
func WithIDs(newID func() string) Option {
	return func(m *Manager) { m.newID = newID }
}

func New(repo Repository, opts ...Option) *Manager {
	m := &Manager{
		repo:   repo,
		logger: slog.Default(),
		now:    time.Now,
		newID:  randomID,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// randomID draws base36 characters from crypto/rand, rejecting bytes at or
// above the largest multiple of 36 so every character is equally likely.
func randomID() string {
	const limit = 256 - 256%len(idAlphabet)

	out := make([]byte, 0, idLength)
	buf := make([]byte, idLength*2)
	for len(out) < idLength {
		rand.Read(buf)
		for _, c := range buf {
			if int(c) >= limit {
				continue
			}
			out = append(out, idAlphabet[int(c)%len(idAlphabet)])
			if len(out) == idLength {
				break
			}
		}
	}
	return string(out)
}

func (m *Manager) millis() int64 {
	return hooplink.Millis(m.now())
}

func indexOf(games []hooplink.Game, id string) int {
	return slices.IndexFunc(games, func(g hooplink.Game) bool { return g.ID == id })
}

// nextStatus is the status a new automatic entry receives.
func nextStatus(g hooplink.Game) hooplink.PlayerStatus {
	if g.ConfirmedCount() < g.MaxPlayers {
		return hooplink.StatusConfirmed
	}
	return hooplink.StatusWaitlist
}

// modify loads all games, applies fn to the one with gameID, and saves the
// collection when fn reports a change.
func (m *Manager) modify(ctx context.Context, gameID string, fn func(g *hooplink.Game) (Result, bool)) (hooplink.Game, Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	games, err := m.repo.LoadGames(ctx)
	if err != nil {
		return hooplink.Game{}, NotFound, fmt.Errorf("loading games: %w", err)
	}
	i := indexOf(games, gameID)
	if i < 0 {
		return hooplink.Game{}, NotFound, nil
	}

	res, changed := fn(&games[i])
	if res == NotFound {
		return hooplink.Game{}, NotFound, nil
	}
	if changed {
		if err := m.repo.SaveGames(ctx, games); err != nil {
			return hooplink.Game{}, res, fmt.Errorf("saving games: %w", err)
		}
	}
	return games[i], res, nil
}

// List returns every game matching f in stored order.
func (m *Manager) List(ctx context.Context, f hooplink.Filter) ([]hooplink.Game, error) {
	games, err := m.repo.LoadGames(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading games: %w", err)
	}
	out := make([]hooplink.Game, 0, len(games))
	for _, g := range games {
		if f.Match(g) {
			out = append(out, g)
		}
	}
	return out, nil
}

func (m *Manager) Get(ctx context.Context, gameID string) (hooplink.Game, Result, error) {
	games, err := m.repo.LoadGames(ctx)
	if err != nil {
		return hooplink.Game{}, NotFound, fmt.Errorf("loading games: %w", err)
	}
	i := indexOf(games, gameID)
	if i < 0 {
		return hooplink.Game{}, NotFound, nil
	}
	return games[i], OK, nil
}

// Create appends a new unlocked game with an empty roster.
func (m *Manager) Create(ctx context.Context, in NewGame) (hooplink.Game, error) {
	if in.MaxPlayers <= 0 {
		in.MaxPlayers = DefaultMaxPlayers
	}
	if !in.SkillLevel.Valid() {
		in.SkillLevel = hooplink.SkillAll
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	games, err := m.repo.LoadGames(ctx)
	if err != nil {
		return hooplink.Game{}, fmt.Errorf("loading games: %w", err)
	}

	g := hooplink.Game{
		ID:            m.newID(),
		Title:         in.Title,
		OrganizerID:   in.OrganizerID,
		OrganizerName: in.OrganizerName,
		Date:          in.Date,
		Time:          in.Time,
		Location:      in.Location,
		LocationURL:   in.LocationURL,
		MaxPlayers:    in.MaxPlayers,
		SkillLevel:    in.SkillLevel,
		Notes:         in.Notes,
		Players:       []hooplink.PlayerEntry{},
		IsLocked:      false,
		CreatedAt:     m.millis(),
	}
	if err := m.repo.SaveGames(ctx, append(games, g)); err != nil {
		return hooplink.Game{}, fmt.Errorf("saving games: %w", err)
	}
	m.logger.Info("game created", "game_id", g.ID, "organizer_id", g.OrganizerID)
	return g, nil
}

// Update overwrites game fields from p. Capacity changes do not re-run
// waitlist assignment.
func (m *Manager) Update(ctx context.Context, gameID string, p GamePatch) (hooplink.Game, Result, error) {
	return m.modify(ctx, gameID, func(g *hooplink.Game) (Result, bool) {
		if p.Title != nil {
			g.Title = *p.Title
		}
		if p.Date != nil {
			g.Date = *p.Date
		}
		if p.Time != nil {
			g.Time = *p.Time
		}
		if p.Location != nil {
			g.Location = *p.Location
		}
		if p.LocationURL != nil {
			g.LocationURL = *p.LocationURL
		}
		if p.MaxPlayers != nil {
			g.MaxPlayers = *p.MaxPlayers
		}
		if p.SkillLevel != nil {
			g.SkillLevel = *p.SkillLevel
		}
		if p.Notes != nil {
			g.Notes = *p.Notes
		}
		if p.IsLocked != nil {
			g.IsLocked = *p.IsLocked
		}
		return OK, true
	})
}

// Join adds user to the roster, confirmed while there is capacity and
// waitlisted after. A user already on the roster gets AlreadyJoined and
// nothing is written. The lock flag is not checked here.
func (m *Manager) Join(ctx context.Context, gameID string, user hooplink.User, phone string) (hooplink.Game, Result, error) {
	if user.ID == "" {
		return hooplink.Game{}, NotFound, nil
	}
	if phone == "" {
		phone = user.Phone
	}
	return m.modify(ctx, gameID, func(g *hooplink.Game) (Result, bool) {
		if g.HasPlayer(user.ID) {
			return AlreadyJoined, false
		}
		g.Players = append(g.Players, hooplink.PlayerEntry{
			UserID:   user.ID,
			Name:     user.Name,
			Phone:    phone,
			JoinedAt: m.millis(),
			Status:   nextStatus(*g),
		})
		return OK, true
	})
}

// ManualAdd adds a guest entry under a fresh synthesized id.
func (m *Manager) ManualAdd(ctx context.Context, gameID, name, phone string) (hooplink.Game, Result, error) {
	return m.modify(ctx, gameID, func(g *hooplink.Game) (Result, bool) {
		id := hooplink.GuestPrefix + m.newID()
		for g.HasPlayer(id) {
			id = hooplink.GuestPrefix + m.newID()
		}
		g.Players = append(g.Players, hooplink.PlayerEntry{
			UserID:   id,
			Name:     name,
			Phone:    phone,
			JoinedAt: m.millis(),
			Status:   nextStatus(*g),
		})
		return OK, true
	})
}

// Leave removes userID from the roster. When a confirmed player leaves, the
// first waitlisted entry in join order is confirmed.
func (m *Manager) Leave(ctx context.Context, gameID, userID string) (hooplink.Game, Result, error) {
	return m.modify(ctx, gameID, func(g *hooplink.Game) (Result, bool) {
		i := g.PlayerIndex(userID)
		if i < 0 {
			return NotFound, false
		}
		leaving := g.Players[i]
		g.Players = slices.Delete(g.Players, i, i+1)

		if leaving.Status != hooplink.StatusConfirmed {
			return OK, true
		}
		for j := range g.Players {
			if g.Players[j].Status == hooplink.StatusWaitlist {
				g.Players[j].Status = hooplink.StatusConfirmed
				m.logger.Info("waitlist promotion",
					"game_id", g.ID,
					"user_id", g.Players[j].UserID,
					"replaces", leaving.UserID,
				)
				break
			}
		}
		return OK, true
	})
}

// UpdateEntry overwrites fields of one roster entry as given. It performs
// no capacity check and no promotion, so it can leave a game over capacity.
func (m *Manager) UpdateEntry(ctx context.Context, gameID, userID string, p EntryPatch) (hooplink.Game, Result, error) {
	return m.modify(ctx, gameID, func(g *hooplink.Game) (Result, bool) {
		i := g.PlayerIndex(userID)
		if i < 0 {
			return NotFound, false
		}
		e := &g.Players[i]
		if p.Name != nil {
			e.Name = *p.Name
		}
		if p.Phone != nil {
			e.Phone = *p.Phone
		}
		if p.Status != nil {
			e.Status = *p.Status
		}
		return OK, true
	})
}

func (m *Manager) ToggleLock(ctx context.Context, gameID string) (hooplink.Game, Result, error) {
	return m.modify(ctx, gameID, func(g *hooplink.Game) (Result, bool) {
		g.IsLocked = !g.IsLocked
		return OK, true
	})
}

// Delete removes the game and returns one notification per rostered entry,
// guests included. Notifications are saved before the game is removed and
// are rolled back if removing the game fails.
func (m *Manager) Delete(ctx context.Context, gameID, reason string) ([]hooplink.Notification, Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	games, err := m.repo.LoadGames(ctx)
	if err != nil {
		return nil, NotFound, fmt.Errorf("loading games: %w", err)
	}
	i := indexOf(games, gameID)
	if i < 0 {
		return nil, NotFound, nil
	}
	g := games[i]

	created := make([]hooplink.Notification, 0, len(g.Players))
	now := m.millis()
	for _, p := range g.Players {
		created = append(created, hooplink.Notification{
			ID:        m.newID(),
			UserID:    p.UserID,
			GameTitle: g.Title,
			Reason:    reason,
			Timestamp: now,
		})
	}

	var before []hooplink.Notification
	if len(created) > 0 {
		before, err = m.repo.LoadNotifications(ctx)
		if err != nil {
			return nil, NotFound, fmt.Errorf("loading notifications: %w", err)
		}
		if err := m.repo.SaveNotifications(ctx, append(slices.Clip(before), created...)); err != nil {
			return nil, NotFound, fmt.Errorf("saving notifications: %w", err)
		}
	}

	if err := m.repo.SaveGames(ctx, slices.Delete(games, i, i+1)); err != nil {
		// The game is still stored, so a retry must not find its
		// notifications already sent.
		if len(created) > 0 {
			if rerr := m.repo.SaveNotifications(ctx, before); rerr != nil {
				m.logger.Error("restoring notifications after failed delete",
					"game_id", gameID, "error", rerr)
			}
		}
		return nil, NotFound, fmt.Errorf("saving games: %w", err)
	}
	m.logger.Info("game deleted", "game_id", gameID, "notified", len(created))
	return created, OK, nil
}

// Notifications returns userID's notifications in stored order.
func (m *Manager) Notifications(ctx context.Context, userID string) ([]hooplink.Notification, error) {
	all, err := m.repo.LoadNotifications(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading notifications: %w", err)
	}
	out := make([]hooplink.Notification, 0)
	for _, n := range all {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

// ClearNotifications drops every notification addressed to userID and
// returns how many were removed.
func (m *Manager) ClearNotifications(ctx context.Context, userID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	all, err := m.repo.LoadNotifications(ctx)
	if err != nil {
		return 0, fmt.Errorf("loading notifications: %w", err)
	}
	kept := slices.DeleteFunc(slices.Clone(all), func(n hooplink.Notification) bool {
		return n.UserID == userID
	})
	removed := len(all) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	if err := m.repo.SaveNotifications(ctx, kept); err != nil {
		return 0, fmt.Errorf("saving notifications: %w", err)
	}
	return removed, nil
}

// Directory aggregates every roster entry across all games into one row per
// player id, most active first. Name and phone come from the first entry
// seen; ties keep first-seen order.
func (m *Manager) Directory(ctx context.Context) ([]hooplink.PlayerSummary, error) {
	games, err := m.repo.LoadGames(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading games: %w", err)
	}

	seen := make(map[string]int)
	out := make([]hooplink.PlayerSummary, 0)
	for _, g := range games {
		for _, p := range g.Players {
			if i, ok := seen[p.UserID]; ok {
				out[i].GamesPlayed++
				out[i].LastPlayed = max(out[i].LastPlayed, g.CreatedAt)
				continue
			}
			seen[p.UserID] = len(out)
			out = append(out, hooplink.PlayerSummary{
				UserID:      p.UserID,
				Name:        p.Name,
				Phone:       p.Phone,
				GamesPlayed: 1,
				LastPlayed:  g.CreatedAt,
			})
		}
	}

	slices.SortStableFunc(out, func(a, b hooplink.PlayerSummary) int {
		return cmp.Compare(b.GamesPlayed, a.GamesPlayed)
	})
	return out, nil
}
