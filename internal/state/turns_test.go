package state

import (
	"testing"
	"time"
)

func TestTurnLog_StartEndFlush(t *testing.T) {
	dir := t.TempDir()
	l, err := LoadTurns(dir)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := l.Last(); ok {
		t.Fatal("empty log should have no last entry")
	}

	l.Start("a", 1, "stdin")
	l.End("a", func(e *TurnEntry) {
		e.Status = StatusCompleted
		e.Changes = 3
		e.Created = []string{"index.html"}
	})
	l.Start("b", 2, "generate")
	if err := l.Flush(dir); err != nil {
		t.Fatal(err)
	}

	loaded, err := LoadTurns(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded.Entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(loaded.Entries))
	}
	first := loaded.Entries[0]
	if first.Status != StatusCompleted || first.Changes != 3 || first.Duration == "" || first.End.IsZero() {
		t.Fatalf("first entry not closed: %+v", first)
	}
	last, ok := loaded.Last()
	if !ok || last.ID != "b" || last.Status != StatusStreaming || !last.End.IsZero() {
		t.Fatalf("last = %+v", last)
	}
}

func TestTurnLog_EndUnknownID(t *testing.T) {
	l := &TurnLog{}
	l.Start("a", 1, "file")
	l.End("zzz", nil)
	if !l.Entries[0].End.IsZero() {
		t.Fatal("entry a should still be open")
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0m 00s"},
		{3 * time.Second, "0m 03s"},
		{2*time.Minute + 5*time.Second, "2m 05s"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Fatalf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
