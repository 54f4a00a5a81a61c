package layout

import (
	"sort"
	"strings"
)

// Paper 是一种纸张规格，尺寸按纵向保存（mm）。
type Paper struct {
	Name   string  `json:"name"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// paperSizes 覆盖 ISO A/B/C、RA/SRA、北美常用规格以及 ID-1 证件卡。
var paperSizes = map[string][2]float64{
	"4A0": {1682, 2378},
	"2A0": {1189, 1682},
	"A0":  {841, 1189},
	"A1":  {594, 841},
	"A2":  {420, 594},
	"A3":  {297, 420},
	"A4":  {210, 297},
	"A5":  {148, 210},
	"A6":  {105, 148},
	"A7":  {74, 105},
	"A8":  {52, 74},
	"A9":  {37, 52},
	"A10": {26, 37},

	"B0":  {1000, 1414},
	"B1":  {707, 1000},
	"B2":  {500, 707},
	"B3":  {353, 500},
	"B4":  {250, 353},
	"B5":  {176, 250},
	"B6":  {125, 176},
	"B7":  {88, 125},
	"B8":  {62, 88},
	"B9":  {44, 62},
	"B10": {31, 44},

	"C0":  {917, 1297},
	"C1":  {648, 917},
	"C2":  {458, 648},
	"C3":  {324, 458},
	"C4":  {229, 324},
	"C5":  {162, 229},
	"C6":  {114, 162},
	"C7":  {81, 114},
	"C8":  {57, 81},
	"C9":  {40, 57},
	"C10": {28, 40},

	"RA0":  {860, 1220},
	"RA1":  {610, 860},
	"RA2":  {430, 610},
	"RA3":  {305, 430},
	"RA4":  {215, 305},
	"SRA0": {900, 1280},
	"SRA1": {640, 900},
	"SRA2": {450, 640},
	"SRA3": {320, 450},
	"SRA4": {225, 320},

	"EXECUTIVE": {184.15, 266.7},
	"FOLIO":     {215.9, 330.2},
	"LEGAL":     {215.9, 355.6},
	"LETTER":    {215.9, 279.4},
	"TABLOID":   {279.4, 431.8},

	"ID1": {53.98, 85.6},
}

// LookupPaper 按名称（不区分大小写）查找纸张规格。
func LookupPaper(name string) (Paper, bool) {
	key := strings.ToUpper(strings.TrimSpace(name))
	dims, ok := paperSizes[key]
	if !ok {
		return Paper{}, false
	}
	return Paper{Name: key, Width: dims[0], Height: dims[1]}, true
}

// PaperSizes 返回所有支持的纸张名称，按名称排序。
func PaperSizes() []string {
	names := make([]string, 0, len(paperSizes))
	for name := range paperSizes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
