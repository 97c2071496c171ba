package resultlog

import (
	"testing"
	"time"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open()
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAppendAndListOrder(t *testing.T) {
	s := testStore(t)

	recs := []Record{
		{ID: "r1", SessionID: "s1", Prompt: "first", Brand: "Acme", Mentioned: true, Position: 2, CreatedAt: time.Now()},
		{ID: "r2", SessionID: "s1", Prompt: "second", Brand: "Acme", Mentioned: false, Position: 0, CreatedAt: time.Now()},
		{ID: "r3", SessionID: "s1", Prompt: "third", Brand: "Acme", Mentioned: false, Position: -1, Raw: "API_ERROR", Error: "boom", CreatedAt: time.Now()},
	}
	for _, r := range recs {
		if err := s.Append(r); err != nil {
			t.Fatalf("Append(%s): %v", r.ID, err)
		}
	}

	got, err := s.List("s1")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d records, want 3", len(got))
	}
	for i, want := range []string{"first", "second", "third"} {
		if got[i].Prompt != want {
			t.Errorf("records[%d].Prompt = %q, want %q (insertion order)", i, got[i].Prompt, want)
		}
	}
	if got[2].Error != "boom" || got[2].Raw != "API_ERROR" {
		t.Errorf("records[2] = %+v, want raw/error preserved", got[2])
	}
	if got[2].Position != -1 {
		t.Errorf("records[2].Position = %d, want -1 (sentinel kept verbatim)", got[2].Position)
	}
}

func TestListIsolatesSessions(t *testing.T) {
	s := testStore(t)

	s.Append(Record{ID: "a", SessionID: "s1", Prompt: "p1", Brand: "b", CreatedAt: time.Now()})
	s.Append(Record{ID: "b", SessionID: "s2", Prompt: "p2", Brand: "b", CreatedAt: time.Now()})

	got, err := s.List("s1")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 || got[0].ID != "a" {
		t.Errorf("List(s1) = %+v, want only record a", got)
	}
}

func TestListEmptySession(t *testing.T) {
	s := testStore(t)

	got, err := s.List("nobody")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("List on empty session = %d records, want 0", len(got))
	}
}
