package game

import (
	"context"
	"sort"
	"sync"

	"github.com/tomaszsb/Code2027-sub004/internal/data"
	"github.com/tomaszsb/Code2027-sub004/internal/game/errs"
	"github.com/tomaszsb/Code2027-sub004/internal/game/state"
	"go.uber.org/zap"
)

// Repository persists game states for session resume. The zero value of a
// Manager works without one; persistence methods then report a conflict.
type Repository interface {
	SaveGame(ctx context.Context, gameID string, gs *state.GameState) error
	LoadGame(ctx context.Context, gameID string) (*state.GameState, error)
	DeleteGame(ctx context.Context, gameID string) error
	ListGames(ctx context.Context) ([]string, error)
}

// Manager owns every active Engine, keyed by game id.
type Manager struct {
	mu       sync.RWMutex
	games    map[string]*Engine
	data     data.Service
	repo     Repository
	settings Settings
	logger   *zap.Logger
}

// NewManager creates a manager. repo may be nil for in-memory-only hosting.
func NewManager(dataSvc data.Service, repo Repository, settings Settings, logger *zap.Logger) *Manager {
	return &Manager{
		games:    make(map[string]*Engine),
		data:     dataSvc,
		repo:     repo,
		settings: settings,
		logger:   logger,
	}
}

// CreateGame builds and registers a new game, processing the first arrival.
func (m *Manager) CreateGame(gameID string, players []PlayerSetup) (*Engine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.games[gameID]; exists {
		return nil, errs.Conflictf("game %s already exists", gameID)
	}
	engine, err := NewEngine(gameID, players, m.data, m.settings, m.logger)
	if err != nil {
		return nil, err
	}
	m.games[gameID] = engine
	if m.logger != nil {
		m.logger.Info("created game",
			zap.String("game_id", gameID),
			zap.Int("players", len(players)),
		)
	}
	engine.StartGame()
	return engine, nil
}

// GetGame returns the engine for a game id.
func (m *Manager) GetGame(gameID string) (*Engine, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	engine, ok := m.games[gameID]
	if !ok {
		return nil, &errs.NotFoundError{Kind: "game", ID: gameID}
	}
	return engine, nil
}

// RemoveGame unregisters a game. The persisted copy, if any, is untouched;
// use DeleteGame for that.
func (m *Manager) RemoveGame(gameID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.games[gameID]; !ok {
		return &errs.NotFoundError{Kind: "game", ID: gameID}
	}
	delete(m.games, gameID)
	return nil
}

// ActiveGames returns the ids of every registered game, sorted.
func (m *Manager) ActiveGames() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.games))
	for id := range m.games {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// SaveGame persists a game's current state.
func (m *Manager) SaveGame(ctx context.Context, gameID string) error {
	if m.repo == nil {
		return errs.Conflictf("no repository is configured")
	}
	engine, err := m.GetGame(gameID)
	if err != nil {
		return err
	}
	if err := m.repo.SaveGame(ctx, gameID, engine.State()); err != nil {
		return err
	}
	if m.logger != nil {
		m.logger.Info("saved game", zap.String("game_id", gameID))
	}
	return nil
}

// ResumeGame loads a persisted game and registers an engine around it.
func (m *Manager) ResumeGame(ctx context.Context, gameID string) (*Engine, error) {
	if m.repo == nil {
		return nil, errs.Conflictf("no repository is configured")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if engine, exists := m.games[gameID]; exists {
		return engine, nil
	}
	gs, err := m.repo.LoadGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	engine, err := ResumeEngine(gameID, gs, m.data, m.logger)
	if err != nil {
		return nil, err
	}
	m.games[gameID] = engine
	if m.logger != nil {
		m.logger.Info("resumed game", zap.String("game_id", gameID))
	}
	return engine, nil
}

// DeleteGame removes a game from the registry and from persistence.
func (m *Manager) DeleteGame(ctx context.Context, gameID string) error {
	m.mu.Lock()
	delete(m.games, gameID)
	m.mu.Unlock()
	if m.repo == nil {
		return nil
	}
	return m.repo.DeleteGame(ctx, gameID)
}
