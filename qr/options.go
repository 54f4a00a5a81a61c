package qr

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

// ErrorCorrection 是二维码的纠错等级，冗余度 L < M < Q < H。
type ErrorCorrection string

const (
	LevelL ErrorCorrection = "L"
	LevelM ErrorCorrection = "M"
	LevelQ ErrorCorrection = "Q"
	LevelH ErrorCorrection = "H"
)

// ParseErrorCorrection 接受 L/M/Q/H 以及 low/medium/quartile/high（不区分大小写）。
func ParseErrorCorrection(s string) (ErrorCorrection, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "L", "LOW":
		return LevelL, nil
	case "M", "MEDIUM":
		return LevelM, nil
	case "Q", "QUARTILE":
		return LevelQ, nil
	case "H", "HIGH":
		return LevelH, nil
	default:
		return "", fmt.Errorf("未知的纠错等级 %q", s)
	}
}

func (e ErrorCorrection) recoveryLevel() (qrcode.RecoveryLevel, error) {
	switch e {
	case LevelL:
		return qrcode.Low, nil
	case LevelM:
		return qrcode.Medium, nil
	case LevelQ:
		return qrcode.High, nil
	case LevelH:
		return qrcode.Highest, nil
	default:
		return 0, fmt.Errorf("未知的纠错等级 %q", string(e))
	}
}

// RenderOptions 控制单个二维码位图的尺寸与颜色。
type RenderOptions struct {
	PixelWidth      int             `json:"width"`
	Margin          int             `json:"margin"`
	ErrorCorrection ErrorCorrection `json:"errorCorrectionLevel"`
	Scale           float64         `json:"scale"`
	Foreground      string          `json:"dark"`
	Background      string          `json:"light"`
}

// DefaultRenderOptions returns 128px symbols, a 4-module quiet zone, level M
// and dark grey modules on white.
func DefaultRenderOptions() RenderOptions {
	return RenderOptions{
		PixelWidth:      128,
		Margin:          4,
		ErrorCorrection: LevelM,
		Scale:           128.0 / 100.0,
		Foreground:      "#333333",
		Background:      "#ffffff",
	}
}

// Check reports the first structural problem with the options. Range limits for
// user input live with the settings validation.
func (o RenderOptions) Check() error {
	if o.PixelWidth <= 0 {
		return fmt.Errorf("像素宽度必须为正数，实际为 %d", o.PixelWidth)
	}
	if o.Margin < 0 {
		return fmt.Errorf("边距不能为负数，实际为 %d", o.Margin)
	}
	if o.Scale <= 0 {
		return fmt.Errorf("缩放必须为正数，实际为 %g", o.Scale)
	}
	if _, err := o.ErrorCorrection.recoveryLevel(); err != nil {
		return err
	}
	if _, err := ParseColor(o.Foreground); err != nil {
		return fmt.Errorf("前景色: %w", err)
	}
	if _, err := ParseColor(o.Background); err != nil {
		return fmt.Errorf("背景色: %w", err)
	}
	return nil
}

// ParseColor parses "#rrggbb" into an opaque color.RGBA.
func ParseColor(s string) (color.RGBA, error) {
	if len(s) != 7 || s[0] != '#' {
		return color.RGBA{}, fmt.Errorf("颜色 %q 无效，应为 #rrggbb", s)
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("颜色 %q 无效: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}
