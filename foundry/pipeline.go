package foundry

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ByLCY/qrfoundry/binding"
	"github.com/ByLCY/qrfoundry/layout"
	"github.com/ByLCY/qrfoundry/qr"
)

// Batch 是一次派生的完整产物：标识、位图与分页布局。
type Batch struct {
	Generation  uint64
	Settings    Settings
	Identifiers []string
	Images      []qr.RasterImage
	Layout      *layout.Result
}

// Skipped 返回未能生成二维码的标识数量。
func (b *Batch) Skipped() int {
	return len(b.Identifiers) - len(b.Images)
}

// DeriveDocument 按设置栅格化 ids 并分页，不修改任何共享状态。
// 标题与说明文字在此处替换占位符。
func DeriveDocument(ctx context.Context, s Settings, ids []string, ts layout.Typesetter, logger zerolog.Logger) (*Batch, error) {
	if err := s.validateForDerive(); err != nil {
		return nil, err
	}
	images, err := qr.RasterizeBatch(ctx, ids, s.Render, qr.BatchOptions{Logger: &logger})
	if err != nil {
		return nil, fmt.Errorf("生成二维码失败: %w", err)
	}

	items := make([]layout.Item, len(images))
	for i, img := range images {
		items[i] = layout.Item{
			Index:      img.Index,
			Identifier: img.Identifier,
			Caption:    captionFor(s, img),
			Image: layout.ImageResource{
				Name:        fmt.Sprintf("qr-%04d", img.Index),
				PixelWidth:  img.Width,
				PixelHeight: img.Width,
				Image:       img.Image,
			},
		}
	}

	title := s.renderTitle()
	result, err := layout.Build(layout.Input{
		Title:      title,
		Items:      items,
		Page:       s.Page,
		ImageWidth: float64(s.Render.PixelWidth) * layout.PxToMm,
		Meta: layout.DocumentMeta{
			Title:    title,
			Creator:  "qrfoundry",
			Subject:  fmt.Sprintf("%d QR codes", len(images)),
			Keywords: []string{"qr", s.Page.Size},
		},
	}, s.buildOptions(ts))
	if err != nil {
		return nil, fmt.Errorf("排版失败: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logger.Debug().
		Int("identifiers", len(ids)).
		Int("images", len(images)).
		Int("pages", len(result.Pages)).
		Msg("document derived")

	return &Batch{
		Settings:    s,
		Identifiers: ids,
		Images:      images,
		Layout:      result,
	}, nil
}

func captionFor(s Settings, img qr.RasterImage) string {
	if s.Document.Caption == "" {
		return img.Identifier
	}
	data := s.TemplateData()
	data["id"] = img.Identifier
	data["index"] = img.Index
	data["n"] = img.Index + 1
	return binding.Interpolate(s.Document.Caption, data)
}

// buildOptions 将文档中指定的字体交给布局；未指定时布局使用内置字体。
func (s Settings) buildOptions(ts layout.Typesetter) layout.BuildOptions {
	opts := layout.BuildOptions{Typesetter: ts}
	if s.Document.TitleFont != "" {
		opts.TitleFont = &layout.FontResource{Name: "Title", Src: s.Document.TitleFont}
	}
	if s.Document.CaptionFont != "" {
		opts.CaptionFont = &layout.FontResource{Name: "Caption", Src: s.Document.CaptionFont}
	}
	return opts
}
