package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tomaszsb/Code2027-sub004/internal/game/errs"
	"github.com/tomaszsb/Code2027-sub004/internal/game/state"
	"go.uber.org/zap"
)

// GameRepository stores full game states keyed by game id. It satisfies the
// manager's Repository interface.
type GameRepository struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewGameRepository creates a repository over an open pool.
func NewGameRepository(pool *pgxpool.Pool, logger *zap.Logger) *GameRepository {
	return &GameRepository{pool: pool, logger: logger}
}

// SaveGame upserts the serialized state for a game.
func (r *GameRepository) SaveGame(ctx context.Context, gameID string, gs *state.GameState) error {
	raw, err := gs.ToJSON()
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO game_sessions (game_id, state, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (game_id)
		DO UPDATE SET state = EXCLUDED.state, updated_at = now()`,
		gameID, raw)
	if err != nil {
		return fmt.Errorf("failed to save game %s: %w", gameID, err)
	}
	if r.logger != nil {
		r.logger.Debug("saved game state", zap.String("game_id", gameID), zap.Int("bytes", len(raw)))
	}
	return nil
}

// LoadGame fetches and deserializes a game's stored state.
func (r *GameRepository) LoadGame(ctx context.Context, gameID string) (*state.GameState, error) {
	var raw []byte
	err := r.pool.QueryRow(ctx,
		`SELECT state FROM game_sessions WHERE game_id = $1`, gameID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &errs.NotFoundError{Kind: "game", ID: gameID}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load game %s: %w", gameID, err)
	}
	return state.FromJSON(raw)
}

// DeleteGame removes a game's stored state. Deleting an unknown game is not
// an error.
func (r *GameRepository) DeleteGame(ctx context.Context, gameID string) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM game_sessions WHERE game_id = $1`, gameID)
	if err != nil {
		return fmt.Errorf("failed to delete game %s: %w", gameID, err)
	}
	return nil
}

// ListGames returns the ids of every stored game, most recently saved first.
func (r *GameRepository) ListGames(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT game_id FROM game_sessions ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan game id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
