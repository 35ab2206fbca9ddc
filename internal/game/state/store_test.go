package state

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomaszsb/Code2027-sub004/internal/data"
	"github.com/tomaszsb/Code2027-sub004/internal/game/errs"
	"go.uber.org/zap/zaptest"
)

func testState() *GameState {
	return &GameState{
		GameID: "g1",
		Players: []*Player{
			{
				ID:            "p1",
				Name:          "Alice",
				CurrentSpace:  "OWNER-SCOPE-INITIATION",
				CurrentVisit:  data.VisitFirst,
				VisitedSpaces: []string{"OWNER-SCOPE-INITIATION"},
				Money:         1000,
				Hand:          map[data.CardType][]string{data.CardTypeWork: {"W001"}},
			},
			{
				ID:           "p2",
				Name:         "Bob",
				CurrentSpace: "OWNER-SCOPE-INITIATION",
				CurrentVisit: data.VisitFirst,
				Hand:         map[data.CardType][]string{},
			},
		},
		CurrentPlayerID: "p1",
		GamePhase:       GamePhasePlay,
		TurnPhase:       TurnPhaseActions,
		GlobalTurn:      1,
		Decks: map[data.CardType][]string{
			data.CardTypeWork: {"W003", "W002"},
		},
		DiscardPiles: map[data.CardType][]string{},
		Snapshots:    map[string]*Snapshot{},
	}
}

func TestStoreCopyOnWrite(t *testing.T) {
	store := NewStore(testState(), zaptest.NewLogger(t))

	before := store.State()
	require.Equal(t, 1000, before.PlayerByID("p1").Money)

	_, err := store.UpdatePlayer("p1", func(p *Player) {
		p.Money = 500
	})
	require.NoError(t, err)

	// The previously returned copy must not observe the mutation.
	assert.Equal(t, 1000, before.PlayerByID("p1").Money)
	assert.Equal(t, 500, store.State().PlayerByID("p1").Money)
}

func TestStoreReturnedStateIsNotAliased(t *testing.T) {
	store := NewStore(testState(), zaptest.NewLogger(t))

	got := store.State()
	got.PlayerByID("p1").Money = 0
	got.Decks[data.CardTypeWork][0] = "tampered"

	fresh := store.State()
	assert.Equal(t, 1000, fresh.PlayerByID("p1").Money)
	assert.Equal(t, "W003", fresh.Decks[data.CardTypeWork][0])
}

func TestStoreUpdateUnknownPlayer(t *testing.T) {
	store := NewStore(testState(), zaptest.NewLogger(t))

	_, err := store.UpdatePlayer("nobody", func(p *Player) {})
	var notFound *errs.NotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "player", notFound.Kind)
}

func TestSnapshotRevertPreservesVisitHistory(t *testing.T) {
	store := NewStore(testState(), zaptest.NewLogger(t))

	require.NoError(t, store.SaveSnapshot("p1", "OWNER-SCOPE-INITIATION"))

	// Money drops and a new space gets visited after the snapshot.
	_, err := store.UpdatePlayer("p1", func(p *Player) {
		p.Money = 0
		p.VisitedSpaces = append(p.VisitedSpaces, "OWNER-FUND-INITIATION")
	})
	require.NoError(t, err)

	reverted, err := store.RevertToSnapshot("p1")
	require.NoError(t, err)

	p1 := reverted.PlayerByID("p1")
	assert.Equal(t, 1000, p1.Money)
	assert.Contains(t, p1.VisitedSpaces, "OWNER-FUND-INITIATION",
		"visit history must survive a revert")
	assert.True(t, store.HasSnapshot("p1", "OWNER-SCOPE-INITIATION"),
		"snapshot must persist until the turn advances")
}

func TestSnapshotRevertIsIdempotent(t *testing.T) {
	store := NewStore(testState(), zaptest.NewLogger(t))

	require.NoError(t, store.SaveSnapshot("p1", "OWNER-SCOPE-INITIATION"))
	_, err := store.UpdatePlayer("p1", func(p *Player) { p.Money = 42 })
	require.NoError(t, err)

	first, err := store.RevertToSnapshot("p1")
	require.NoError(t, err)
	second, err := store.RevertToSnapshot("p1")
	require.NoError(t, err)

	assert.Equal(t, first.PlayerByID("p1").Money, second.PlayerByID("p1").Money)
	assert.Equal(t, 1000, second.PlayerByID("p1").Money)
}

func TestRevertWithoutSnapshot(t *testing.T) {
	store := NewStore(testState(), zaptest.NewLogger(t))

	_, err := store.RevertToSnapshot("p1")
	var noSnap *errs.NoSnapshotError
	require.True(t, errors.As(err, &noSnap))
	assert.Equal(t, "p1", noSnap.PlayerID)
}

func TestClearSnapshot(t *testing.T) {
	store := NewStore(testState(), zaptest.NewLogger(t))

	require.NoError(t, store.SaveSnapshot("p1", "OWNER-SCOPE-INITIATION"))
	store.ClearSnapshot("p1")
	assert.False(t, store.HasSnapshot("p1", "OWNER-SCOPE-INITIATION"))
}

func TestActionLogSessions(t *testing.T) {
	store := NewStore(testState(), zaptest.NewLogger(t))

	store.AppendLog(LogEntry{PlayerID: "p1", Type: "space_arrival", Description: "Arrived", IsCommitted: true})
	store.AppendLog(LogEntry{PlayerID: "p1", Type: "card_play", Description: "Attempt 1", ExplorationSessionID: "sess-1"})
	store.AppendLog(LogEntry{PlayerID: "p1", Type: "card_play", Description: "Attempt 2", ExplorationSessionID: "sess-2"})

	committed := store.CommittedLog()
	require.Len(t, committed, 1)

	store.CommitLogSession("sess-2")
	committed = store.CommittedLog()
	require.Len(t, committed, 2)
	assert.Equal(t, "Attempt 2", committed[1].Description)

	// Abandoned attempts stay in the full log.
	assert.Len(t, store.State().ActionLog, 3)
}

func TestAppendLogInfersPlayerFields(t *testing.T) {
	store := NewStore(testState(), zaptest.NewLogger(t))

	entry := store.AppendLog(LogEntry{PlayerID: "p1", Type: "turn_end", Description: "Turn ended"})
	assert.Equal(t, "Alice", entry.PlayerName)
	assert.Equal(t, VisibilityPlayer, entry.Visibility)
	assert.NotEmpty(t, entry.ID)
}

func TestSubscribeReceivesCommits(t *testing.T) {
	store := NewStore(testState(), zaptest.NewLogger(t))

	var wg sync.WaitGroup
	wg.Add(1)
	seen := make(chan int, 1)
	unsubscribe := store.Subscribe(func(gs GameState) {
		seen <- gs.PlayerByID("p1").Money
		wg.Done()
	})
	defer unsubscribe()

	_, err := store.UpdatePlayer("p1", func(p *Player) { p.Money = 777 })
	require.NoError(t, err)

	wg.Wait()
	assert.Equal(t, 777, <-seen)
}

func TestGameStateJSONRoundTrip(t *testing.T) {
	store := NewStore(testState(), zaptest.NewLogger(t))
	require.NoError(t, store.SaveSnapshot("p1", "OWNER-SCOPE-INITIATION"))
	store.AppendLog(LogEntry{PlayerID: "p1", Type: "space_arrival", Description: "Arrived", IsCommitted: true})

	original := store.State()
	raw, err := original.ToJSON()
	require.NoError(t, err)

	restored, err := FromJSON(raw)
	require.NoError(t, err)

	assert.Equal(t, original.GameID, restored.GameID)
	assert.Equal(t, original.Decks, restored.Decks)
	assert.Equal(t, original.PlayerByID("p1").Hand, restored.PlayerByID("p1").Hand)
	require.NotNil(t, restored.Snapshots["p1"])
	assert.Equal(t, "OWNER-SCOPE-INITIATION", restored.Snapshots["p1"].SpaceName)
	require.Len(t, restored.ActionLog, 1)
	assert.True(t, original.ActionLog[0].Timestamp.Equal(restored.ActionLog[0].Timestamp))
}

func TestNextPlayerIDWrapsAndSkipsFinished(t *testing.T) {
	gs := testState()
	assert.Equal(t, "p2", gs.NextPlayerID("p1"))
	assert.Equal(t, "p1", gs.NextPlayerID("p2"))

	gs.PlayerByID("p2").Finished = true
	assert.Equal(t, "p1", gs.NextPlayerID("p1"))
}
