package dsl_test

import (
	"strings"
	"testing"

	"github.com/ByLCY/qrfoundry/dsl"
)

const sampleDSL = `
// 批次设置
foundry v1 {
  document {
    title: "Lote ${count}"
    count: 12
    filename: "lote.pdf"
    caption: "${id}"
  }

  /* 二维码外观 */
  qr {
    width: 128; margin: 4
    level: H
    scale: 1.28
    dark: #333333
    light: #ffffff   # 白底
  }

  page A4 landscape margin 10mm 5mm
}
`

func TestParseFile(t *testing.T) {
	f, err := dsl.ParseString(sampleDSL)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if f.Version != "v1" {
		t.Fatalf("expected version v1, got %s", f.Version)
	}
	if len(f.Sections) != 3 {
		t.Fatalf("expected 3 sections, got %d", len(f.Sections))
	}
	kinds := []string{"document", "qr", "page"}
	for i, s := range f.Sections {
		if s.Kind() != kinds[i] {
			t.Fatalf("section %d: expected %s, got %s", i, kinds[i], s.Kind())
		}
	}

	doc := f.Sections[0].Document.Block
	title, ok := doc.Lookup("title")
	if !ok || title.String == nil || title.Text() != "Lote ${count}" {
		t.Fatalf("unexpected title %+v", title)
	}
	count, _ := doc.Lookup("count")
	if count.Number == nil || *count.Number != "12" {
		t.Fatalf("unexpected count %+v", count)
	}

	qr := f.Sections[1].QR.Block
	if len(qr.Assignments) != 6 {
		t.Fatalf("expected 6 qr assignments, got %d", len(qr.Assignments))
	}
	level, _ := qr.Lookup("level")
	if level.Ident == nil || level.Text() != "H" {
		t.Fatalf("unexpected level %+v", level)
	}
	dark, _ := qr.Lookup("dark")
	if dark.Color == nil || dark.Text() != "#333333" {
		t.Fatalf("unexpected dark %+v", dark)
	}
	scale, _ := qr.Lookup("scale")
	if scale.Text() != "1.28" {
		t.Fatalf("unexpected scale %q", scale.Text())
	}

	page := f.Sections[2].Page
	if page.Size != "A4" {
		t.Fatalf("expected A4, got %s", page.Size)
	}
	var params []string
	for _, p := range page.Params {
		params = append(params, p.Value)
	}
	if got := strings.Join(params, " "); got != "landscape margin 10mm 5mm" {
		t.Fatalf("unexpected page params %q", got)
	}
}

func TestParseSingleLineBlocks(t *testing.T) {
	src := `foundry v1 { document { title: "Hi" count: 3 } qr { level: L dark: #000000 } page 4A0 }`
	f, err := dsl.ParseString(src)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(f.Sections) != 3 {
		t.Fatalf("expected 3 sections, got %d", len(f.Sections))
	}
	if f.Sections[2].Page.Size != "4A0" {
		t.Fatalf("expected 4A0, got %s", f.Sections[2].Page.Size)
	}
	c, _ := f.Sections[0].Document.Block.Lookup("count")
	if c.Text() != "3" {
		t.Fatalf("unexpected count %q", c.Text())
	}
}

func TestLookupLastAssignmentWins(t *testing.T) {
	f, err := dsl.ParseString("foundry v1 {\n qr {\n width: 64\n width: 256\n }\n}\n")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	v, ok := f.Sections[0].QR.Block.Lookup("width")
	if !ok || v.Text() != "256" {
		t.Fatalf("expected 256, got %+v", v)
	}
	if _, ok := f.Sections[0].QR.Block.Lookup("margin"); ok {
		t.Fatalf("margin should be absent")
	}
}

func TestParseHashCommentsStartingWithHexLetters(t *testing.T) {
	src := "foundry v1 {\n  #add margin later\n  qr {\n    dark: #0a0b0c # face\n    margin: 2\n  }\n}\n"
	f, err := dsl.ParseString(src)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	v, ok := f.Sections[0].QR.Block.Lookup("dark")
	if !ok || v.Text() != "#0a0b0c" {
		t.Fatalf("unexpected dark %+v", v)
	}
	if m, _ := f.Sections[0].QR.Block.Lookup("margin"); m.Text() != "2" {
		t.Fatalf("unexpected margin %q", m.Text())
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	for _, src := range []string{
		"",
		"doc v1 {}",
		"foundry v1 { qr { width 12 } }",
		"foundry v1 { colors { dark: #000000 } }",
		"foundry v1 { document { title: \"unterminated } }",
	} {
		if _, err := dsl.ParseString(src); err == nil {
			t.Errorf("expected error for %q", src)
		}
	}
}
