package foundry

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/ByLCY/qrfoundry/layout"
)

func smallSettings(count int) Settings {
	s := DefaultSettings()
	s.Document.Count = count
	return s
}

func TestSessionReusesIdentifiersUntilCountChanges(t *testing.T) {
	sess := NewSession(stubTypesetter{}, SessionOptions{})
	ctx := context.Background()

	a, err := sess.Apply(ctx, smallSettings(3))
	if err != nil {
		t.Fatal(err)
	}
	if len(a.Identifiers) != 3 || len(a.Images) != 3 {
		t.Fatalf("expected 3 codes, got %d/%d", len(a.Identifiers), len(a.Images))
	}

	recolored := smallSettings(3)
	recolored.Render.Foreground = "#000000"
	b, err := sess.Apply(ctx, recolored)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a.Identifiers, b.Identifiers) {
		t.Fatalf("identifiers changed without a count change")
	}

	c, err := sess.Apply(ctx, smallSettings(4))
	if err != nil {
		t.Fatal(err)
	}
	if len(c.Identifiers) != 4 || c.Identifiers[0] == a.Identifiers[0] {
		t.Fatalf("identifiers should be regenerated on count change")
	}
	if sess.Current() != c || c.Generation != 3 {
		t.Fatalf("current batch not installed: gen %d", c.Generation)
	}
}

func TestSessionRejectsInvalidSettings(t *testing.T) {
	sess := NewSession(stubTypesetter{}, SessionOptions{})
	if _, err := sess.Apply(context.Background(), smallSettings(1000)); err == nil {
		t.Fatalf("count 1000 should be rejected")
	}
	if sess.Current() != nil {
		t.Fatalf("nothing should be installed")
	}
}

func TestSessionAppliesEmptyBatch(t *testing.T) {
	sess := NewSession(stubTypesetter{}, SessionOptions{})
	batch, err := sess.Apply(context.Background(), smallSettings(0))
	if err != nil {
		t.Fatalf("count 0: %v", err)
	}
	if len(batch.Identifiers) != 0 || batch.Layout.BlockCount() != 0 || len(batch.Layout.Pages) != 1 {
		t.Fatalf("expected a title-only document, got %d ids / %d blocks / %d pages",
			len(batch.Identifiers), batch.Layout.BlockCount(), len(batch.Layout.Pages))
	}
	if sess.Current() != batch {
		t.Fatalf("empty batch not installed")
	}
}

// gatedTypesetter 在第一次排版时阻塞，直到 gate 关闭。
type gatedTypesetter struct {
	stubTypesetter
	once    sync.Once
	entered chan struct{}
	gate    chan struct{}
}

func (g *gatedTypesetter) LayoutLines(content string, width float64, font layout.FontResource, fontSize, lineHeight float64, wrap string) ([]layout.TextLine, error) {
	first := false
	g.once.Do(func() { first = true })
	if first {
		close(g.entered)
		<-g.gate
	}
	return g.stubTypesetter.LayoutLines(content, width, font, fontSize, lineHeight, wrap)
}

func TestSessionDiscardsSupersededBatch(t *testing.T) {
	ts := &gatedTypesetter{entered: make(chan struct{}), gate: make(chan struct{})}
	sess := NewSession(ts, SessionOptions{})

	var installed []uint64
	sess.OnUpdate(func(b *Batch) { installed = append(installed, b.Generation) })

	slow := make(chan error, 1)
	go func() {
		_, err := sess.Apply(context.Background(), smallSettings(2))
		slow <- err
	}()
	<-ts.entered

	fast, err := sess.Apply(context.Background(), smallSettings(2))
	if err != nil {
		t.Fatalf("newer apply failed: %v", err)
	}
	close(ts.gate)

	if err := <-slow; !errors.Is(err, ErrSuperseded) {
		t.Fatalf("expected ErrSuperseded, got %v", err)
	}
	if sess.Current() != fast {
		t.Fatalf("superseded batch replaced the newer one")
	}
	if !reflect.DeepEqual(installed, []uint64{2}) {
		t.Fatalf("listeners saw %v", installed)
	}
}

func TestSessionCancelledContext(t *testing.T) {
	sess := NewSession(stubTypesetter{}, SessionOptions{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := sess.Apply(ctx, smallSettings(5)); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
