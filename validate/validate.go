// Package validate 提供表单字段级别的校验函数。
//
// 每个函数在通过时返回空字符串，否则返回可直接展示给用户的提示文字。
package validate

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// 表单默认使用的模式。
const (
	NumberPattern = `^[0-9.]+$`
	TextPattern   = `^[a-zA-Z0-9\s!@#$%^&?(),.]+$`
	ColorPattern  = `^#[0-9a-fA-F]{6}$`
)

const requiredMessage = "This field is required"

var colorExp = regexp.MustCompile(ColorPattern)

// NumberRule 描述数字字段的取值范围，nil 表示不限。
type NumberRule struct {
	Min      *float64
	Max      *float64
	Required bool
}

// Range 是同时给定上下限的便捷构造。
func Range(min, max float64) NumberRule {
	return NumberRule{Min: &min, Max: &max, Required: true}
}

// Number 校验 value 能否解析为数字，并检查是否位于 [Min, Max] 闭区间。
func Number(value string, rule NumberRule) string {
	value = strings.TrimSpace(value)
	if value == "" {
		if rule.Required {
			return requiredMessage
		}
		return ""
	}
	num, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(num) {
		return "Must be a number"
	}
	low := rule.Min != nil && num < *rule.Min
	high := rule.Max != nil && num > *rule.Max
	if !low && !high {
		return ""
	}
	switch {
	case rule.Min != nil && rule.Max != nil:
		return fmt.Sprintf("Must be between %s and %s", formatNum(*rule.Min), formatNum(*rule.Max))
	case low:
		return fmt.Sprintf("Must be at least %s", formatNum(*rule.Min))
	default:
		return fmt.Sprintf("Must be at most %s", formatNum(*rule.Max))
	}
}

// TextRule 描述文本字段的长度与模式。长度以字符计。
type TextRule struct {
	MinLength int
	MaxLength int
	Pattern   string
	Required  bool
}

// Text 依次检查最小长度、最大长度与模式。
func Text(value string, rule TextRule) string {
	if value == "" {
		if rule.Required {
			return requiredMessage
		}
		return ""
	}
	n := len([]rune(value))
	if rule.MinLength > 0 && n < rule.MinLength {
		return fmt.Sprintf("Must be at least %d characters", rule.MinLength)
	}
	if rule.MaxLength > 0 && n > rule.MaxLength {
		return fmt.Sprintf("Must be at most %d characters", rule.MaxLength)
	}
	if rule.Pattern != "" {
		re, err := compile(rule.Pattern)
		if err != nil {
			return fmt.Sprintf("Invalid pattern %s", rule.Pattern)
		}
		if !re.MatchString(value) {
			return fmt.Sprintf("Must match pattern %s", rule.Pattern)
		}
	}
	return ""
}

// ColorRule 描述颜色字段。
type ColorRule struct {
	Required bool
}

// Color 要求值形如 #RRGGBB。
func Color(value string, rule ColorRule) string {
	if value == "" {
		if rule.Required {
			return requiredMessage
		}
		return ""
	}
	if len(value) != 7 || !colorExp.MatchString(value) {
		return "Must be a valid color"
	}
	return ""
}

// Errors 按字段名收集校验失败信息。
type Errors map[string]string

// Add 在 msg 非空时记录该字段的错误，已有错误不会被覆盖。
func (e Errors) Add(field, msg string) {
	if msg == "" {
		return
	}
	if _, ok := e[field]; !ok {
		e[field] = msg
	}
}

// Err 在没有任何错误时返回 nil。
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

func (e Errors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f + ": " + e[f]
	}
	return strings.Join(parts, "; ")
}

var patterns sync.Map

func compile(p string) (*regexp.Regexp, error) {
	if re, ok := patterns.Load(p); ok {
		return re.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(p)
	if err != nil {
		return nil, err
	}
	patterns.Store(p, re)
	return re, nil
}

func formatNum(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
