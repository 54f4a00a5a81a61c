package validate

import (
	"errors"
	"strings"
	"testing"
)

func TestNumber(t *testing.T) {
	cases := []struct {
		value string
		rule  NumberRule
		want  string
	}{
		{"128", Range(32, 512), ""},
		{"32", Range(32, 512), ""},
		{"512", Range(32, 512), ""},
		{"31", Range(32, 512), "Must be between 32 and 512"},
		{"1.5", Range(1, 32), ""},
		{"0.5", Range(1, 32), "Must be between 1 and 32"},
		{"abc", Range(1, 32), "Must be a number"},
		{"NaN", Range(1, 999), "Must be a number"},
		{"nan", NumberRule{}, "Must be a number"},
		{"", NumberRule{}, ""},
		{"", Range(1, 999), requiredMessage},
		{"-3", NumberRule{}, ""},
	}
	for _, c := range cases {
		if got := Number(c.value, c.rule); got != c.want {
			t.Errorf("Number(%q) = %q, want %q", c.value, got, c.want)
		}
	}
	min := 0.0
	if got := Number("-1", NumberRule{Min: &min}); got != "Must be at least 0" {
		t.Errorf("只有下限: %q", got)
	}
}

func TestText(t *testing.T) {
	title := TextRule{MaxLength: 128, Pattern: TextPattern, Required: true}
	cases := []struct {
		value string
		rule  TextRule
		want  string
	}{
		{"Hello, world!", title, ""},
		{"Lote (42) & más", title, "Must match pattern " + TextPattern},
		{strings.Repeat("a", 129), title, "Must be at most 128 characters"},
		{"ab", TextRule{MinLength: 3}, "Must be at least 3 characters"},
		{"", TextRule{MinLength: 3}, ""},
		{"", title, requiredMessage},
	}
	for _, c := range cases {
		if got := Text(c.value, c.rule); got != c.want {
			t.Errorf("Text(%q) = %q, want %q", c.value, got, c.want)
		}
	}
}

func TestColor(t *testing.T) {
	cases := map[string]bool{
		"#333333":  true,
		"#FFffEe":  true,
		"#12345":   false,
		"#1234567": false,
		"333333":   false,
		"#gggggg":  false,
		"":         true,
	}
	for v, ok := range cases {
		got := Color(v, ColorRule{})
		if (got == "") != ok {
			t.Errorf("Color(%q) = %q", v, got)
		}
	}
	if Color("", ColorRule{Required: true}) == "" {
		t.Errorf("必填颜色为空应报错")
	}
}

func TestErrors(t *testing.T) {
	errs := Errors{}
	errs.Add("width", "")
	if errs.Err() != nil {
		t.Fatalf("空消息不应记录")
	}
	errs.Add("width", "Must be a number")
	errs.Add("width", "second")
	errs.Add("dark", "Must be a valid color")
	err := errs.Err()
	var target Errors
	if !errors.As(err, &target) || len(target) != 2 {
		t.Fatalf("errors.As 失败: %v", err)
	}
	if got := err.Error(); got != "dark: Must be a valid color; width: Must be a number" {
		t.Fatalf("Error() = %q", got)
	}
}
