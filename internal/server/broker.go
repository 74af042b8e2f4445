package server

import (
	"encoding/json"
	"sync"

	"github.com/playperu/hooplink/internal/hooplink"
)

const (
	EventGameUpdated = "game_updated"
	EventGameDeleted = "game_deleted"
)

// RosterEvent is the payload published to a game's subscribers.
type RosterEvent struct {
	Type   string         `json:"type"`
	GameID string         `json:"gameId"`
	Game   *hooplink.Game `json:"game,omitempty"`
	Reason string         `json:"reason,omitempty"`
}

func gameUpdated(g hooplink.Game) RosterEvent {
	return RosterEvent{Type: EventGameUpdated, GameID: g.ID, Game: &g}
}

// Broker is an in-process pub/sub for roster events, keyed by game ID.
type Broker struct {
	mu     sync.RWMutex
	subs   map[string]map[chan []byte]struct{}
	closed bool
}

func NewBroker() *Broker {
	return &Broker{
		subs: make(map[string]map[chan []byte]struct{}),
	}
}

// Subscribe returns a channel that receives JSON-encoded events for the game.
// The channel is closed when the broker shuts down.
func (b *Broker) Subscribe(gameID string) chan []byte {
	ch := make(chan []byte, 16)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch
	}
	if b.subs[gameID] == nil {
		b.subs[gameID] = make(map[chan []byte]struct{})
	}
	b.subs[gameID][ch] = struct{}{}
	return ch
}

func (b *Broker) Unsubscribe(gameID string, ch chan []byte) {
	b.mu.Lock()
	delete(b.subs[gameID], ch)
	if len(b.subs[gameID]) == 0 {
		delete(b.subs, gameID)
	}
	b.mu.Unlock()
}

// Publish sends an event to every subscriber of the game. Slow subscribers
// miss events rather than block the publisher.
func (b *Broker) Publish(gameID string, event RosterEvent) {
	data, _ := json.Marshal(event)
	b.mu.RLock()
	for ch := range b.subs[gameID] {
		select {
		case ch <- data:
		default:
		}
	}
	b.mu.RUnlock()
}

// Subscribers reports how many channels listen on the game.
func (b *Broker) Subscribers(gameID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[gameID])
}

// Close ends every subscription.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for gameID, chans := range b.subs {
		for ch := range chans {
			close(ch)
		}
		delete(b.subs, gameID)
	}
}
