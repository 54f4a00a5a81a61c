package main

import "testing"

func TestFontListSet(t *testing.T) {
	f := fontList{}
	if err := f.Set("brand=fonts/brand.ttf"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if got := f["brand"].Path; got != "fonts/brand.ttf" {
		t.Fatalf("path = %q", got)
	}
	for _, bad := range []string{"brand", "=x.ttf", "brand="} {
		if err := f.Set(bad); err == nil {
			t.Fatalf("%q should be rejected", bad)
		}
	}
	if f.String() != "brand" {
		t.Fatalf("String() = %q", f.String())
	}
}
