package resources

import (
	"testing"

	"github.com/tomaszsb/Code2027-sub004/internal/data"
	"github.com/tomaszsb/Code2027-sub004/internal/game/state"
	"go.uber.org/zap/zaptest"
)

func newTestLedger(t *testing.T) (*Ledger, *state.Store) {
	t.Helper()
	store := state.NewStore(&state.GameState{
		GameID: "g1",
		Players: []*state.Player{
			{ID: "p1", Name: "Alice", Money: 1000, TimeSpent: 10, Hand: map[data.CardType][]string{}},
		},
		CurrentPlayerID: "p1",
		GamePhase:       state.GamePhasePlay,
	}, zaptest.NewLogger(t))
	return NewLedger(store, zaptest.NewLogger(t)), store
}

func TestAddAndSpendMoney(t *testing.T) {
	ledger, store := newTestLedger(t)

	if err := ledger.AddMoney("p1", 500, "test", "bonus"); err != nil {
		t.Fatalf("add money: %v", err)
	}
	if got := store.State().PlayerByID("p1").Money; got != 1500 {
		t.Fatalf("expected 1500, got %d", got)
	}

	if err := ledger.SpendMoney("p1", 300, "test", "fees"); err != nil {
		t.Fatalf("spend money: %v", err)
	}
	if got := store.State().PlayerByID("p1").Money; got != 1200 {
		t.Fatalf("expected 1200, got %d", got)
	}
}

func TestMoneyNeverNegative(t *testing.T) {
	ledger, store := newTestLedger(t)

	if err := ledger.SpendMoney("p1", 5000, "test", "overdraw"); err != nil {
		t.Fatalf("spend money: %v", err)
	}
	if got := store.State().PlayerByID("p1").Money; got != 0 {
		t.Fatalf("expected clamp at 0, got %d", got)
	}
}

func TestTimeNeverNegative(t *testing.T) {
	ledger, store := newTestLedger(t)

	if err := ledger.SpendTime("p1", 50, "test", "refund"); err != nil {
		t.Fatalf("spend time: %v", err)
	}
	if got := store.State().PlayerByID("p1").TimeSpent; got != 0 {
		t.Fatalf("expected clamp at 0, got %d", got)
	}
}

func TestResourceFloorUnderMixedSequences(t *testing.T) {
	ledger, store := newTestLedger(t)

	ops := []func() error{
		func() error { return ledger.SpendMoney("p1", 900, "t", "") },
		func() error { return ledger.SpendMoney("p1", 900, "t", "") },
		func() error { return ledger.AddMoney("p1", 250, "t", "") },
		func() error { return ledger.SpendTime("p1", 99, "t", "") },
		func() error { return ledger.AddTime("p1", 3, "t", "") },
		func() error { return ledger.SpendMoney("p1", 1, "t", "") },
	}
	for i, op := range ops {
		if err := op(); err != nil {
			t.Fatalf("op %d: %v", i, err)
		}
		p := store.State().PlayerByID("p1")
		if p.Money < 0 || p.TimeSpent < 0 {
			t.Fatalf("op %d: resources went negative: money=%d time=%d", i, p.Money, p.TimeSpent)
		}
	}
}

func TestCanAfford(t *testing.T) {
	ledger, _ := newTestLedger(t)

	if !ledger.CanAfford("p1", 1000) {
		t.Fatal("expected p1 to afford exactly 1000")
	}
	if ledger.CanAfford("p1", 1001) {
		t.Fatal("expected p1 not to afford 1001")
	}
	if ledger.CanAfford("ghost", 1) {
		t.Fatal("unknown player can afford nothing")
	}
}

func TestUpdateResourcesCombined(t *testing.T) {
	ledger, store := newTestLedger(t)

	err := ledger.UpdateResources("p1", Change{
		Money:     Delta(-200),
		TimeSpent: Delta(5),
		Source:    "space_effect",
		Reason:    "Construction fees",
	})
	if err != nil {
		t.Fatalf("update resources: %v", err)
	}

	p := store.State().PlayerByID("p1")
	if p.Money != 800 || p.TimeSpent != 15 {
		t.Fatalf("expected money=800 time=15, got money=%d time=%d", p.Money, p.TimeSpent)
	}

	// The combined change commits as one transition with one log entry.
	var changes int
	for _, e := range store.State().ActionLog {
		if e.Type == "resource_change" {
			changes++
		}
	}
	if changes != 1 {
		t.Fatalf("expected 1 resource_change log entry, got %d", changes)
	}
}

func TestValidateResourceChange(t *testing.T) {
	ledger, store := newTestLedger(t)

	res := ledger.ValidateResourceChange("p1", Change{Money: Delta(-1200)})
	if res.Valid {
		t.Fatal("expected invalid: cannot afford 1200")
	}
	if len(res.Errors) != 1 {
		t.Fatalf("expected 1 error, got %d", len(res.Errors))
	}

	res = ledger.ValidateResourceChange("p1", Change{Money: Delta(-1000), TimeSpent: Delta(2)})
	if !res.Valid {
		t.Fatalf("expected valid, got errors %v", res.Errors)
	}

	// Pre-flight checks never mutate.
	if got := store.State().PlayerByID("p1").Money; got != 1000 {
		t.Fatalf("validate mutated state: money=%d", got)
	}
}

func TestUnknownPlayer(t *testing.T) {
	ledger, _ := newTestLedger(t)

	if err := ledger.AddMoney("ghost", 10, "t", ""); err == nil {
		t.Fatal("expected error for unknown player")
	}
}
