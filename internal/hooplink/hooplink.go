// Package hooplink defines the core domain types for pickup games.
// It has no dependencies outside the standard library.
//
// The JSON shape of these types is the stored format, so field names and
// millisecond timestamps must not change.
package hooplink

import (
	"strings"
	"time"
)

type SkillLevel string

const (
	SkillBeginner     SkillLevel = "Beginner"
	SkillIntermediate SkillLevel = "Intermediate"
	SkillAdvanced     SkillLevel = "Advanced"
	SkillAll          SkillLevel = "All Levels"
)

// Valid reports whether s is one of the known skill levels.
func (s SkillLevel) Valid() bool {
	switch s {
	case SkillBeginner, SkillIntermediate, SkillAdvanced, SkillAll:
		return true
	}
	return false
}

type Role string

const (
	RolePlayer    Role = "PLAYER"
	RoleOrganizer Role = "ORGANIZER"
)

func (r Role) Valid() bool {
	return r == RolePlayer || r == RoleOrganizer
}

type PlayerStatus string

const (
	StatusConfirmed PlayerStatus = "confirmed"
	StatusWaitlist  PlayerStatus = "waitlist"
)

func (s PlayerStatus) Valid() bool {
	return s == StatusConfirmed || s == StatusWaitlist
}

// GuestPrefix marks player ids synthesized for organizer-entered guests.
const GuestPrefix = "manual-"

type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
	Phone string `json:"phone,omitempty"`
}

type PlayerEntry struct {
	UserID   string       `json:"userId"`
	Name     string       `json:"name"`
	Phone    string       `json:"phone,omitempty"`
	JoinedAt int64        `json:"joinedAt"`
	Status   PlayerStatus `json:"status"`
}

// IsGuest reports whether the entry was added by an organizer without a
// backing user account.
func (p PlayerEntry) IsGuest() bool {
	return strings.HasPrefix(p.UserID, GuestPrefix)
}

type Game struct {
	ID            string        `json:"id"`
	Title         string        `json:"title"`
	OrganizerID   string        `json:"organizerId"`
	OrganizerName string        `json:"organizerName"`
	Date          string        `json:"date"`
	Time          string        `json:"time"`
	Location      string        `json:"location"`
	LocationURL   string        `json:"locationUrl,omitempty"`
	MaxPlayers    int           `json:"maxPlayers"`
	SkillLevel    SkillLevel    `json:"skillLevel"`
	Notes         string        `json:"notes"`
	Players       []PlayerEntry `json:"players"`
	IsLocked      bool          `json:"isLocked"`
	CreatedAt     int64         `json:"createdAt"`
}

// ConfirmedCount returns the number of entries counted against capacity.
func (g Game) ConfirmedCount() int {
	n := 0
	for _, p := range g.Players {
		if p.Status == StatusConfirmed {
			n++
		}
	}
	return n
}

// IsFull reports whether a new automatic entry would land on the waitlist.
func (g Game) IsFull() bool {
	return g.ConfirmedCount() >= g.MaxPlayers
}

// PlayerIndex returns the position of userID in the roster, or -1.
func (g Game) PlayerIndex(userID string) int {
	for i, p := range g.Players {
		if p.UserID == userID {
			return i
		}
	}
	return -1
}

func (g Game) HasPlayer(userID string) bool {
	return g.PlayerIndex(userID) >= 0
}

type Notification struct {
	ID        string `json:"id"`
	UserID    string `json:"userId"`
	GameTitle string `json:"gameTitle"`
	Reason    string `json:"reason"`
	Timestamp int64  `json:"timestamp"`
	Read      bool   `json:"read"`
}

// PlayerSummary is a directory row aggregated across every stored game.
type PlayerSummary struct {
	UserID      string `json:"userId"`
	Name        string `json:"name"`
	Phone       string `json:"phone,omitempty"`
	GamesPlayed int    `json:"gamesPlayed"`
	LastPlayed  int64  `json:"lastPlayed"`
}

// Millis converts t to the millisecond epoch used in stored records.
func Millis(t time.Time) int64 {
	return t.UnixMilli()
}
