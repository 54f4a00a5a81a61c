// Package ident generates batches of short identifiers that are unique within a batch.
package ident

import (
	"encoding/hex"

	"github.com/google/uuid"
)

// Options 控制标识符的格式。
type Options struct {
	// Full 为 true 时返回完整的 UUID 字符串，否则返回 13 位短标识。
	Full bool
}

// Generator 生成一批互不相同的标识符，不保留跨批次的状态。
type Generator struct {
	opts    Options
	newUUID func() uuid.UUID
}

// New 创建一个使用随机 UUID (v4) 的生成器。
func New(opts Options) *Generator {
	return &Generator{opts: opts, newUUID: uuid.New}
}

// Generate 使用默认选项生成 count 个短标识。
func Generate(count int) []string {
	return New(Options{}).Generate(count)
}

// Generate 返回恰好 count 个互不相同的标识；count <= 0 时返回空切片。
func (g *Generator) Generate(count int) []string {
	if count <= 0 {
		return []string{}
	}
	out := make([]string, 0, count)
	seen := make(map[string]struct{}, count)
	for len(out) < count {
		id := g.next()
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// next 的短格式取 UUID 前 6 个字节（全部为随机位），前缀 c 保证以字母开头。
func (g *Generator) next() string {
	u := g.newUUID()
	if g.opts.Full {
		return u.String()
	}
	return "c" + hex.EncodeToString(u[:6])
}
