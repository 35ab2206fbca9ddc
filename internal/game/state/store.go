package state

import (
	"sync"
	"time"

	"github.com/tomaszsb/Code2027-sub004/internal/game/errs"
	"go.uber.org/zap"
)

// Subscriber receives a state copy after every committed update.
type Subscriber func(GameState)

// Store is the single mutation path for a game's state. Every update is
// copy-on-write: the current revision is cloned, mutated and swapped in, so
// previously returned states are never aliased.
type Store struct {
	logger  *zap.Logger
	mu      sync.RWMutex
	current *GameState

	subMu   sync.RWMutex
	subs    map[int]Subscriber
	nextSub int
}

// NewStore creates a store owning the given initial state.
func NewStore(initial *GameState, logger *zap.Logger) *Store {
	return &Store{
		logger:  logger,
		current: initial.Clone(),
		subs:    make(map[int]Subscriber),
	}
}

// State returns a deep, externally-unmutable copy of the current state.
func (s *Store) State() *GameState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Clone()
}

// Player returns a deep copy of the named player's state.
func (s *Store) Player(playerID string) (*Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p := s.current.PlayerByID(playerID)
	if p == nil {
		return nil, &errs.NotFoundError{Kind: "player", ID: playerID}
	}
	return p.Clone(), nil
}

// UpdatePlayer applies mutate to a copy of the named player inside a new
// state revision and commits it. Returns the new state.
func (s *Store) UpdatePlayer(playerID string, mutate func(*Player)) (*GameState, error) {
	s.mu.Lock()
	next := s.current.Clone()
	p := next.PlayerByID(playerID)
	if p == nil {
		s.mu.Unlock()
		return nil, &errs.NotFoundError{Kind: "player", ID: playerID}
	}
	mutate(p)
	s.current = next
	out := next.Clone()
	s.mu.Unlock()

	s.notify(out)
	return out, nil
}

// UpdateGame applies mutate to a copy of the full state and commits it.
func (s *Store) UpdateGame(mutate func(*GameState)) *GameState {
	s.mu.Lock()
	next := s.current.Clone()
	mutate(next)
	s.current = next
	out := next.Clone()
	s.mu.Unlock()

	s.notify(out)
	return out
}

// Subscribe registers a subscriber for committed updates and returns an
// unsubscribe function. Subscribers run in their own goroutine so they can
// safely call back into the store.
func (s *Store) Subscribe(fn Subscriber) func() {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) notify(snapshot *GameState) {
	s.subMu.RLock()
	subs := make([]Subscriber, 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.subMu.RUnlock()

	for _, fn := range subs {
		go fn(*snapshot)
	}
}

// SaveSnapshot stores a deep copy of the current state for the player,
// keyed by space. Callers invoke this once per space-entry, before arrival
// effects are applied, so a revert undoes exactly everything since the
// space was entered.
func (s *Store) SaveSnapshot(playerID, spaceName string) error {
	s.mu.Lock()
	if s.current.PlayerByID(playerID) == nil {
		s.mu.Unlock()
		return &errs.NotFoundError{Kind: "player", ID: playerID}
	}
	frozen := s.current.Clone()
	frozen.Snapshots = nil

	next := s.current.Clone()
	if next.Snapshots == nil {
		next.Snapshots = make(map[string]*Snapshot)
	}
	next.Snapshots[playerID] = &Snapshot{
		PlayerID:  playerID,
		SpaceName: spaceName,
		TakenAt:   time.Now(),
		State:     frozen,
	}
	s.current = next
	s.mu.Unlock()

	if s.logger != nil {
		s.logger.Debug("saved snapshot",
			zap.String("player_id", playerID),
			zap.String("space", spaceName),
		)
	}
	return nil
}

// HasSnapshot reports whether a snapshot exists for the player at the space.
func (s *Store) HasSnapshot(playerID, spaceName string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.current.Snapshots[playerID]
	return ok && snap.SpaceName == spaceName
}

// GetSnapshot returns a copy of the player's stored snapshot.
func (s *Store) GetSnapshot(playerID string) (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.current.Snapshots[playerID]
	if !ok {
		player := s.current.PlayerByID(playerID)
		space := ""
		if player != nil {
			space = player.CurrentSpace
		}
		return nil, &errs.NoSnapshotError{PlayerID: playerID, Space: space}
	}
	return snap.Clone(), nil
}

// RevertToSnapshot restores the player's stored snapshot as the current
// state. The snapshot itself is preserved so further reverts remain
// possible until the turn advances. Reverting is scoped to gameplay fields:
// visited-space history, the snapshot map and the append-only action log
// survive the revert.
func (s *Store) RevertToSnapshot(playerID string) (*GameState, error) {
	s.mu.Lock()
	snap, ok := s.current.Snapshots[playerID]
	if !ok {
		player := s.current.PlayerByID(playerID)
		space := ""
		if player != nil {
			space = player.CurrentSpace
		}
		s.mu.Unlock()
		return nil, &errs.NoSnapshotError{PlayerID: playerID, Space: space}
	}

	next := snap.State.Clone()

	// Meta bookkeeping is carried forward from the live state, not the
	// snapshot. Wiping visit history here once caused infinite First-visit
	// loops after a revert.
	next.Snapshots = make(map[string]*Snapshot, len(s.current.Snapshots))
	for id, sn := range s.current.Snapshots {
		next.Snapshots[id] = sn.Clone()
	}
	next.ActionLog = append([]ActionLogEntry(nil), s.current.ActionLog...)
	for _, p := range next.Players {
		if live := s.current.PlayerByID(p.ID); live != nil {
			p.VisitedSpaces = append([]string(nil), live.VisitedSpaces...)
		}
	}

	s.current = next
	out := next.Clone()
	s.mu.Unlock()

	if s.logger != nil {
		s.logger.Info("reverted to snapshot",
			zap.String("player_id", playerID),
			zap.String("space", snap.SpaceName),
		)
	}
	s.notify(out)
	return out, nil
}

// ClearSnapshot removes the player's stored snapshot. Called on turn advance.
func (s *Store) ClearSnapshot(playerID string) {
	s.mu.Lock()
	next := s.current.Clone()
	delete(next.Snapshots, playerID)
	s.current = next
	s.mu.Unlock()
}

// AppendLog appends an entry to the action log, inferring player name and
// turn numbers from the current state when the caller supplies only ids.
func (s *Store) AppendLog(e LogEntry) ActionLogEntry {
	var entry ActionLogEntry
	s.UpdateGame(func(gs *GameState) {
		entry = gs.AppendLogEntry(e)
	})
	return entry
}

// CommitLogSession marks every entry of an exploration session as committed,
// folding the attempt into the canonical history.
func (s *Store) CommitLogSession(sessionID string) {
	if sessionID == "" {
		return
	}
	s.UpdateGame(func(gs *GameState) {
		for i := range gs.ActionLog {
			if gs.ActionLog[i].ExplorationSessionID == sessionID {
				gs.ActionLog[i].IsCommitted = true
			}
		}
	})
}

// CommittedLog returns the canonical history: committed entries plus entries
// that never belonged to an exploration session.
func (s *Store) CommittedLog() []ActionLogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ActionLogEntry, 0, len(s.current.ActionLog))
	for _, e := range s.current.ActionLog {
		if e.IsCommitted || e.ExplorationSessionID == "" {
			out = append(out, e)
		}
	}
	return out
}
