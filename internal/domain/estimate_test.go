package domain

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestEstimateJSON(t *testing.T) {
	var e Estimate
	if err := json.Unmarshal([]byte(`{"joker":true}`), &e); err != nil {
		t.Fatalf("unmarshal joker: %v", err)
	}
	if !e.IsJoker() {
		t.Fatalf("expected joker")
	}
	if _, ok := e.Points(); ok {
		t.Fatalf("joker must not carry points")
	}

	if err := json.Unmarshal([]byte(`{"points":8}`), &e); err != nil {
		t.Fatalf("unmarshal points: %v", err)
	}
	if p, ok := e.Points(); !ok || p != 8 {
		t.Fatalf("expected 8 points, got %d %v", p, ok)
	}

	for _, raw := range []string{`{}`, `{"joker":true,"points":0}`, `{"joker":false}`} {
		if err := json.Unmarshal([]byte(raw), &e); !errors.Is(err, ErrInvalidEstimate) {
			t.Fatalf("expected ErrInvalidEstimate for %s, got %v", raw, err)
		}
	}

	out, err := json.Marshal(Joker())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `{"joker":true}` {
		t.Fatalf("unexpected joker json %s", out)
	}
}

func TestRosterSize(t *testing.T) {
	votes := []Vote{{UserID: "a"}, {UserID: "b"}, {UserID: "a"}}

	if got := (Roster{}).Size(votes); got != 2 {
		t.Fatalf("expected distinct voters fallback 2, got %d", got)
	}
	r := Roster{Participants: []string{"a", "b", "c"}}
	if got := r.Size(votes); got != 3 {
		t.Fatalf("expected participants 3, got %d", got)
	}
	r.Estimators = []string{"a", "b", "c", "d"}
	if got := r.Size(votes); got != 4 {
		t.Fatalf("expected estimators 4, got %d", got)
	}
	if !r.CanVote("d") || r.CanVote("z") {
		t.Fatalf("unexpected roster membership")
	}
	if !(Roster{}).CanVote("anyone") {
		t.Fatalf("expected open roster to accept any voter")
	}
}

func TestRosterCounted(t *testing.T) {
	votes := []Vote{{UserID: "a"}, {UserID: "b"}, {UserID: "c"}}

	if got := (Roster{}).Counted(votes); len(got) != 3 {
		t.Fatalf("expected open roster to keep all votes, got %d", len(got))
	}
	got := Roster{Estimators: []string{"a", "c"}, Participants: []string{"b"}}.Counted(votes)
	if len(got) != 2 || got[0].UserID != "a" || got[1].UserID != "c" {
		t.Fatalf("expected only estimator votes, got %+v", got)
	}
	if got := (Roster{Participants: []string{"z"}}).Counted(votes); len(got) != 0 {
		t.Fatalf("expected no counted votes, got %+v", got)
	}
}
