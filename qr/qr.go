package qr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"math"
	"runtime"
	"sync"

	"github.com/rs/zerolog"
	qrcode "github.com/skip2/go-qrcode"
)

// RasterImage 是单个标识对应的二维码位图。
type RasterImage struct {
	Index      int
	Identifier string
	Image      *image.RGBA
	Width      int
	Modules    int
	Version    int
}

// Rasterize 将 id 编码为二维码并绘制成正方形位图。
//
// 静区按模块计入 Margin。若 PixelWidth 足以容纳整个符号，输出边长恰为
// PixelWidth，否则按 Scale 每模块像素数绘制。
func Rasterize(id string, opts RenderOptions) (RasterImage, error) {
	if err := opts.Check(); err != nil {
		return RasterImage{}, err
	}
	level, _ := opts.ErrorCorrection.recoveryLevel()
	code, err := qrcode.New(id, level)
	if err != nil {
		return RasterImage{}, fmt.Errorf("编码 %q 失败: %w", truncate(id, 32), err)
	}
	code.DisableBorder = true
	bitmap := code.Bitmap()
	size := len(bitmap)

	dark, _ := ParseColor(opts.Foreground)
	light, _ := ParseColor(opts.Background)

	total := size + 2*opts.Margin
	var scale float64
	var imgSize int
	if opts.PixelWidth >= total {
		scale = float64(opts.PixelWidth) / float64(total)
		imgSize = opts.PixelWidth
	} else {
		scale = opts.Scale
		imgSize = int(math.Floor(float64(total) * scale))
	}
	if imgSize <= 0 {
		return RasterImage{}, fmt.Errorf("%d 个模块的符号无法放入 %dpx", total, opts.PixelWidth)
	}
	offset := float64(opts.Margin) * scale
	end := float64(imgSize) - offset

	img := image.NewRGBA(image.Rect(0, 0, imgSize, imgSize))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: light}, image.Point{}, draw.Src)
	for py := 0; py < imgSize; py++ {
		fy := float64(py)
		if fy < offset || fy >= end {
			continue
		}
		row := int((fy - offset) / scale)
		if row >= size {
			continue
		}
		for px := 0; px < imgSize; px++ {
			fx := float64(px)
			if fx < offset || fx >= end {
				continue
			}
			col := int((fx - offset) / scale)
			if col < size && bitmap[row][col] {
				img.SetRGBA(px, py, dark)
			}
		}
	}

	return RasterImage{
		Identifier: id,
		Image:      img,
		Width:      imgSize,
		Modules:    size,
		Version:    code.VersionNumber,
	}, nil
}

// PNG 将位图编码为 PNG 字节。
func PNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BatchOptions 控制批量栅格化的并发度与日志。
type BatchOptions struct {
	Workers int
	Logger  *zerolog.Logger
}

// RasterizeBatch 并发栅格化 ids，结果按输入顺序返回。
//
// 单个标识失败时记录日志并从结果中省略，不影响其余条目。ctx 取消时返回
// ctx.Err()。
func RasterizeBatch(ctx context.Context, ids []string, opts RenderOptions, bo BatchOptions) ([]RasterImage, error) {
	if err := opts.Check(); err != nil {
		return nil, err
	}
	logger := zerolog.Nop()
	if bo.Logger != nil {
		logger = *bo.Logger
	}
	workers := bo.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(ids) {
		workers = len(ids)
	}

	slots := make([]*RasterImage, len(ids))
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				r, err := Rasterize(ids[i], opts)
				if err != nil {
					logger.Warn().Err(err).Int("index", i).Str("id", truncate(ids[i], 32)).Msg("qr rasterize failed, skipping")
					continue
				}
				r.Index = i
				slots[i] = &r
			}
		}()
	}

feed:
	for i := range ids {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]RasterImage, 0, len(ids))
	for _, s := range slots {
		if s != nil {
			out = append(out, *s)
		}
	}
	logger.Debug().Int("requested", len(ids)).Int("rendered", len(out)).Msg("qr batch done")
	return out, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
