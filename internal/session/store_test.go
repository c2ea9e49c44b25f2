package session

import (
	"fmt"
	"sync"
	"testing"
)

func TestStore_AppendAndHistory(t *testing.T) {
	s := NewStore(0)

	if got := s.History("fresh"); len(got) != 0 {
		t.Fatalf("expected empty history for new session, got %d turns", len(got))
	}

	s.Append("a", "first question", "first answer")
	s.Append("a", "second question", "second answer")

	turns := s.History("a")
	if len(turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(turns))
	}
	if turns[0].User != "first question" || turns[0].Assistant != "first answer" {
		t.Errorf("unexpected first turn: %+v", turns[0])
	}
	if turns[1].User != "second question" || turns[1].Assistant != "second answer" {
		t.Errorf("unexpected second turn: %+v", turns[1])
	}
}

func TestStore_SessionsAreIsolated(t *testing.T) {
	s := NewStore(0)

	s.Append("a", "question for a", "answer for a")
	s.Append("b", "question for b", "answer for b")

	if got := s.History("a"); len(got) != 1 || got[0].User != "question for a" {
		t.Errorf("session a history leaked: %+v", got)
	}
	if got := s.History("b"); len(got) != 1 || got[0].User != "question for b" {
		t.Errorf("session b history leaked: %+v", got)
	}
}

func TestStore_HistoryIsACopy(t *testing.T) {
	s := NewStore(0)
	s.Append("a", "question", "answer")

	turns := s.History("a")
	turns[0].User = "mutated"

	if got := s.History("a"); got[0].User != "question" {
		t.Errorf("history mutated through returned slice: %+v", got)
	}
}

func TestStore_BoundDropsOldestFirst(t *testing.T) {
	s := NewStore(2)

	for i := 1; i <= 4; i++ {
		s.Append("a", fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i))
	}

	turns := s.History("a")
	if len(turns) != 2 {
		t.Fatalf("expected bounded history of 2, got %d", len(turns))
	}
	if turns[0].User != "q3" || turns[1].User != "q4" {
		t.Errorf("expected newest turns kept, got %+v", turns)
	}
}

func TestStore_ConcurrentAppends(t *testing.T) {
	s := NewStore(0)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			key := fmt.Sprintf("session-%d", w%2)
			for i := 0; i < 50; i++ {
				s.Append(key, "q", "a")
			}
		}(w)
	}
	wg.Wait()

	for _, key := range []string{"session-0", "session-1"} {
		if got := len(s.History(key)); got != 200 {
			t.Errorf("%s: expected 200 turns, got %d", key, got)
		}
	}
}
