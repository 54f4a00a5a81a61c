package foundry

import (
	"testing"
	"time"
)

func newTestBridge(opts BridgeOptions) (*Bridge, *fakeClock, *commitRecorder) {
	clock := &fakeClock{}
	rec := &commitRecorder{clock: clock}
	opts.Clock = clock
	return NewBridge(DefaultSettings(), rec.commit, opts), clock, rec
}

func setTitle(title string) func(*Settings) {
	return func(s *Settings) { s.Document.Title = title }
}

func TestBridgeDebouncesBurst(t *testing.T) {
	b, clock, rec := newTestBridge(BridgeOptions{Interval: 2000 * time.Millisecond})

	b.Edit(setTitle("Uno"))
	clock.Advance(500 * time.Millisecond)
	b.Edit(setTitle("Dos"))
	clock.Advance(1400 * time.Millisecond)
	b.Edit(setTitle("Tres"))
	if b.State() != PendingCommit {
		t.Fatalf("expected pending commit, got %s", b.State())
	}

	clock.Advance(1999 * time.Millisecond)
	if rec.count() != 0 {
		t.Fatalf("committed too early at %v", clock.Now())
	}
	clock.Advance(time.Millisecond)
	if rec.count() != 1 {
		t.Fatalf("expected exactly one commit, got %d", rec.count())
	}
	if rec.at[0] != 3900*time.Millisecond {
		t.Fatalf("commit at %v, want 3.9s", rec.at[0])
	}
	if rec.got[0].Document.Title != "Tres" {
		t.Fatalf("committed stale draft %q", rec.got[0].Document.Title)
	}
	if b.State() != Idle || b.Committed().Document.Title != "Tres" {
		t.Fatalf("bridge not idle after commit")
	}

	clock.Advance(10 * time.Second)
	if rec.count() != 1 {
		t.Fatalf("unexpected extra commits: %d", rec.count())
	}
}

func TestBridgeDefaultInterval(t *testing.T) {
	b, clock, rec := newTestBridge(BridgeOptions{})
	b.Edit(setTitle("Uno"))
	clock.Advance(DefaultInterval - time.Millisecond)
	if rec.count() != 0 {
		t.Fatalf("committed before the default interval")
	}
	clock.Advance(time.Millisecond)
	if rec.count() != 1 {
		t.Fatalf("expected commit after the default interval")
	}
}

func TestBridgeSubmitCancelsTimer(t *testing.T) {
	b, clock, rec := newTestBridge(BridgeOptions{})
	b.Edit(setTitle("Ya"))
	clock.Advance(time.Second)
	if err := b.Submit(); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if rec.count() != 1 {
		t.Fatalf("submit should commit immediately")
	}
	clock.Advance(5 * time.Second)
	if rec.count() != 1 {
		t.Fatalf("cancelled timer still fired")
	}
}

func TestBridgeNeverCommitsInvalidDraft(t *testing.T) {
	b, clock, rec := newTestBridge(BridgeOptions{})
	b.Edit(func(s *Settings) { s.Render.Foreground = "#12345" })
	clock.Advance(3 * time.Second)
	if rec.count() != 0 {
		t.Fatalf("invalid draft was committed")
	}
	if b.State() != Idle {
		t.Fatalf("expected idle after skipped commit")
	}
	if err := b.Submit(); err == nil {
		t.Fatalf("submit should report validation error")
	}
	if b.Committed().Render.Foreground != "#333333" {
		t.Fatalf("committed settings changed")
	}

	b.Edit(func(s *Settings) { s.Render.Foreground = "#123456" })
	clock.Advance(3 * time.Second)
	if rec.count() != 1 || rec.got[0].Render.Foreground != "#123456" {
		t.Fatalf("valid draft should commit after the fix")
	}
}

func TestBridgeManualOnly(t *testing.T) {
	b, clock, rec := newTestBridge(BridgeOptions{ManualOnly: true})
	if b.AutoCommit() {
		t.Fatalf("auto commit should be off")
	}
	b.Edit(setTitle("Touch"))
	clock.Advance(time.Minute)
	if rec.count() != 0 {
		t.Fatalf("manual bridge committed on its own")
	}
	if b.State() != PendingCommit {
		t.Fatalf("edit should stay pending until submit")
	}
	if err := b.Submit(); err != nil {
		t.Fatal(err)
	}
	if rec.count() != 1 {
		t.Fatalf("submit did not commit")
	}
}

func TestBridgeReset(t *testing.T) {
	b, clock, rec := newTestBridge(BridgeOptions{})
	b.Edit(setTitle("Committed"))
	if err := b.Submit(); err != nil {
		t.Fatal(err)
	}
	b.Edit(setTitle("Draft"))
	b.Reset()
	if got := b.Draft().Document.Title; got != "Committed" {
		t.Fatalf("reset draft title %q", got)
	}
	if b.State() != Idle {
		t.Fatalf("state after reset %s", b.State())
	}
	clock.Advance(5 * time.Second)
	if rec.count() != 1 || rec.got[0].Document.Title != "Committed" {
		t.Fatalf("reset must not commit, got %d commits", rec.count())
	}
	if got := b.Committed().Document.Title; got != "Committed" {
		t.Fatalf("committed title %q", got)
	}
}

func TestBridgeResetWithoutSubmit(t *testing.T) {
	b, clock, rec := newTestBridge(BridgeOptions{})
	b.Edit(setTitle("Cambio"))
	b.Reset()
	clock.Advance(3 * time.Second)
	if rec.count() != 0 {
		t.Fatalf("pending edit committed after reset")
	}
	if got := b.Draft().Document.Title; got != "Hello, world!" {
		t.Fatalf("draft title %q", got)
	}
}

func TestBridgeClose(t *testing.T) {
	b, clock, rec := newTestBridge(BridgeOptions{})
	b.Edit(setTitle("Adiós"))
	b.Close()
	clock.Advance(3 * time.Second)
	b.Edit(setTitle("Nada"))
	clock.Advance(3 * time.Second)
	if rec.count() != 0 {
		t.Fatalf("closed bridge committed")
	}
	if b.Draft().Document.Title != "Adiós" {
		t.Fatalf("edit after close changed the draft")
	}
}
