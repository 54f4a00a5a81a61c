package binding

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var exprPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Interpolate 将文本中的 ${path.to.value} 替换为 data 中的值。
// 占位符可带格式，如 ${n|%03d}，格式串交给 fmt.Sprintf。
// 若 data 为空或路径不存在，则保留原占位符。
func Interpolate(text string, data any) string {
	if data == nil {
		return text
	}
	return exprPattern.ReplaceAllStringFunc(text, func(match string) string {
		groups := exprPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		path, format := splitFormat(groups[1])
		if path == "" {
			return match
		}
		val, ok := resolvePath(data, path)
		if !ok {
			return match
		}
		if format != "" {
			return fmt.Sprintf(format, val)
		}
		return fmt.Sprint(val)
	})
}

// Placeholders 返回文本中出现的路径，按出现顺序，去掉格式部分。
func Placeholders(text string) []string {
	var out []string
	for _, groups := range exprPattern.FindAllStringSubmatch(text, -1) {
		if path, _ := splitFormat(groups[1]); path != "" {
			out = append(out, path)
		}
	}
	return out
}

func splitFormat(expr string) (string, string) {
	path, format, found := strings.Cut(expr, "|")
	path = strings.TrimSpace(path)
	if !found {
		return path, ""
	}
	return path, strings.TrimSpace(format)
}

func resolvePath(data any, path string) (any, bool) {
	current := data
	for _, segment := range strings.Split(path, ".") {
		name, indexes := parseSegment(segment)
		if name != "" {
			var ok bool
			current, ok = descendMap(current, name)
			if !ok {
				return nil, false
			}
		}
		for _, idxStr := range indexes {
			idx, err := strconv.Atoi(idxStr)
			if err != nil {
				return nil, false
			}
			var ok bool
			current, ok = descendArray(current, idx)
			if !ok {
				return nil, false
			}
		}
	}
	return current, true
}

func parseSegment(segment string) (string, []string) {
	name, rest, found := strings.Cut(segment, "[")
	if !found {
		return segment, nil
	}
	var indexes []string
	rest = "[" + rest
	for len(rest) > 0 && rest[0] == '[' {
		end := strings.IndexByte(rest, ']')
		if end == -1 {
			break
		}
		indexes = append(indexes, rest[1:end])
		rest = rest[end+1:]
	}
	return name, indexes
}

func descendMap(current any, key string) (any, bool) {
	switch c := current.(type) {
	case map[string]any:
		val, ok := c[key]
		return val, ok
	case map[string]string:
		val, ok := c[key]
		return val, ok
	default:
		return nil, false
	}
}

func descendArray(current any, idx int) (any, bool) {
	switch c := current.(type) {
	case []any:
		if idx < 0 || idx >= len(c) {
			return nil, false
		}
		return c[idx], true
	case []string:
		if idx < 0 || idx >= len(c) {
			return nil, false
		}
		return c[idx], true
	default:
		return nil, false
	}
}
