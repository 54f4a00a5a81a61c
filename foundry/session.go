package foundry

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ByLCY/qrfoundry/ident"
	"github.com/ByLCY/qrfoundry/layout"
)

// ErrSuperseded 表示派生完成前已有更新的 Apply 开始，本次结果被丢弃。
var ErrSuperseded = errors.New("foundry: 批次已被更新的设置取代")

// SessionOptions 配置 Session。
type SessionOptions struct {
	Identifiers *ident.Generator
	// Logger 为空时不输出日志。
	Logger *zerolog.Logger
}

// Session 持有当前唯一生效的批次。
type Session struct {
	ts     layout.Typesetter
	gen    *ident.Generator
	logger zerolog.Logger

	mu         sync.Mutex
	generation uint64
	ids        []string
	current    *Batch
	listeners  []func(*Batch)
}

// NewSession 创建会话，ts 用于说明文字与标题排版。
func NewSession(ts layout.Typesetter, opts SessionOptions) *Session {
	gen := opts.Identifiers
	if gen == nil {
		gen = ident.New(ident.Options{})
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Session{ts: ts, gen: gen, logger: logger}
}

// OnUpdate 注册回调，每个成功安装的批次都会按安装顺序通知。
func (s *Session) OnUpdate(fn func(*Batch)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Current 返回当前批次，尚未派生过时为 nil。
func (s *Session) Current() *Batch {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Apply 按设置派生新批次并安装为当前批次。
//
// 标识只在数量变化或尚未生成时重新生成，其余设置变化沿用已有标识。
// 派生期间若有更新的 Apply 开始，返回 ErrSuperseded 且不安装。
func (s *Session) Apply(ctx context.Context, settings Settings) (*Batch, error) {
	if err := settings.validateForDerive(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.generation++
	gen := s.generation
	if len(s.ids) == 0 || len(s.ids) != settings.Document.Count {
		s.ids = s.gen.Generate(settings.Document.Count)
		s.logger.Debug().Int("count", len(s.ids)).Msg("identifiers regenerated")
	}
	ids := slices.Clone(s.ids)
	s.mu.Unlock()

	batch, err := DeriveDocument(ctx, settings, ids, s.ts, s.logger)
	if err != nil {
		return nil, err
	}
	batch.Generation = gen

	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		s.logger.Debug().Uint64("generation", gen).Msg("discarding superseded batch")
		return nil, ErrSuperseded
	}
	s.current = batch
	listeners := slices.Clone(s.listeners)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(batch)
	}
	s.logger.Info().
		Uint64("generation", gen).
		Int("codes", len(batch.Images)).
		Int("pages", len(batch.Layout.Pages)).
		Msg("batch installed")
	return batch, nil
}
