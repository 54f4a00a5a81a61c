package layout

import (
	"fmt"
	"strconv"
	"strings"
)

// This file defines unit-safe types and helpers for lengths used by page options.

// Unit represents the original unit of a length value as written in a settings file.
type Unit int

const (
	UnitNone Unit = iota // unit-less numbers, read as millimeters for page lengths
	UnitMM               // millimeters
	UnitCM               // centimeters
	UnitIN               // inches
	UnitPT               // points
	UnitPX               // raster pixels
)

// Conversion constants between pt, px and mm.
// Raster pixels are laid out at 72 per inch, the same as the PDF user unit.
const (
	PtToMm = 0.352777
	MmToPt = 1.0 / PtToMm
	PxToMm = PtToMm
)

// UnitToString returns a short string for a Unit value.
func UnitToString(u Unit) string {
	switch u {
	case UnitMM:
		return "mm"
	case UnitCM:
		return "cm"
	case UnitIN:
		return "in"
	case UnitPT:
		return "pt"
	case UnitPX:
		return "px"
	default:
		return ""
	}
}

// Length preserves a numeric value with its unit.
type Length struct {
	Value float64 `json:"value"`
	Unit  Unit    `json:"unit"`
}

func (l Length) IsZero() bool { return l.Value == 0 }

// ToMM converts this length to millimeters. Unit-less values are taken as millimeters.
func (l Length) ToMM() float64 {
	switch l.Unit {
	case UnitCM:
		return l.Value * 10
	case UnitIN:
		return l.Value * 25.4
	case UnitPT:
		return l.Value * PtToMm
	case UnitPX:
		return l.Value * PxToMm
	default:
		return l.Value
	}
}

func (l Length) ToPT() float64 { return l.ToMM() * MmToPt }

// ParseLength parses a length string such as "10mm", "1.5cm" or "12".
func ParseLength(value string) (Length, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return Length{}, fmt.Errorf("长度为空")
	}
	unit := UnitNone
	num := v
	for _, suf := range []struct {
		s string
		u Unit
	}{{"mm", UnitMM}, {"cm", UnitCM}, {"in", UnitIN}, {"pt", UnitPT}, {"px", UnitPX}} {
		if strings.HasSuffix(v, suf.s) {
			unit = suf.u
			num = strings.TrimSpace(strings.TrimSuffix(v, suf.s))
			break
		}
	}
	f, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return Length{}, fmt.Errorf("无法解析长度 %q: %w", value, err)
	}
	if f < 0 {
		return Length{}, fmt.Errorf("长度不能为负数: %q", value)
	}
	return Length{Value: f, Unit: unit}, nil
}

// ParseMargin applies CSS-like shorthand semantics to up to four lengths:
//
//	1 value:  all sides
//	2 values: top/bottom, left/right
//	3 values: top, left/right, bottom
//	4 values: top, right, bottom, left
//
// Extra values are ignored.
func ParseMargin(values []string) (Margin, error) {
	if len(values) == 0 {
		return Margin{}, fmt.Errorf("margin 至少需要一个值")
	}
	vals := make([]float64, 0, 4)
	for _, raw := range values {
		if len(vals) == 4 {
			break
		}
		l, err := ParseLength(raw)
		if err != nil {
			return Margin{}, err
		}
		vals = append(vals, l.ToMM())
	}
	switch len(vals) {
	case 1:
		return UniformMargin(vals[0]), nil
	case 2:
		return Margin{Top: vals[0], Right: vals[1], Bottom: vals[0], Left: vals[1]}, nil
	case 3:
		return Margin{Top: vals[0], Right: vals[1], Bottom: vals[2], Left: vals[1]}, nil
	default:
		return Margin{Top: vals[0], Right: vals[1], Bottom: vals[2], Left: vals[3]}, nil
	}
}
