package layout

import (
	"fmt"
	"strings"
)

// Orientation 表示纸张方向。
type Orientation string

const (
	Portrait  Orientation = "portrait"
	Landscape Orientation = "landscape"
)

// ParseOrientation 解析 portrait/landscape（不区分大小写）。
func ParseOrientation(s string) (Orientation, error) {
	switch Orientation(strings.ToLower(strings.TrimSpace(s))) {
	case Portrait, "":
		return Portrait, nil
	case Landscape:
		return Landscape, nil
	default:
		return "", fmt.Errorf("不支持的纸张方向：%s", s)
	}
}

// PageOptions 描述纸张尺寸、方向与边距（mm）。
type PageOptions struct {
	Size        string      `json:"size"`
	Orientation Orientation `json:"orientation"`
	Margin      Margin      `json:"margin"`
}

// DefaultPageOptions 返回 A4 纵向、四边 10mm 的页面设置。
func DefaultPageOptions() PageOptions {
	return PageOptions{Size: "A4", Orientation: Portrait, Margin: UniformMargin(10)}
}

// Dimensions 返回按方向调整后的页面宽高（mm）。
func (o PageOptions) Dimensions() (float64, float64, error) {
	paper, ok := LookupPaper(o.Size)
	if !ok {
		return 0, 0, fmt.Errorf("暂不支持的纸张尺寸：%s", o.Size)
	}
	width, height := paper.Width, paper.Height
	if o.Orientation == Landscape {
		width, height = height, width
	}
	return width, height, nil
}

// BuildOptions 配置布局阶段所需的依赖与样式。
type BuildOptions struct {
	Typesetter Typesetter
	// TitleFont/CaptionFont 为空时使用默认的 embed 字体。
	TitleFont   *FontResource
	CaptionFont *FontResource
}

// Typesetter 负责根据字体与宽度约束将文本拆成可绘制的行。
type Typesetter interface {
	LayoutLines(content string, width float64, font FontResource, fontSize float64, lineHeight float64, wrap string) ([]TextLine, error)
}
