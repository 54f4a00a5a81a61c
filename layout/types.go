package layout

import "image"

// 该文件定义布局结果与资源描述，供布局计算、渲染与调试 JSON 共用。

// Result 保存布局后的页面与资源信息。
type Result struct {
	Pages     []Page       `json:"pages"`
	Resources ResourceSet  `json:"resources"`
	Meta      DocumentMeta `json:"meta"`
}

// BlockCount 返回所有页面上二维码块的总数。
func (r *Result) BlockCount() int {
	if r == nil {
		return 0
	}
	n := 0
	for _, p := range r.Pages {
		n += len(p.Blocks)
	}
	return n
}

// ResourceSet 记录字体与栅格图片资源。
type ResourceSet struct {
	Fonts  map[string]FontResource  `json:"fonts"`
	Images map[string]ImageResource `json:"images"`
}

// FontResource 描述字体资源，src 可以是文件路径、embed:<name> 或 built-in:<name> 形式。
type FontResource struct {
	Name  string `json:"name"`
	Src   string `json:"src"`
	Style string `json:"style"`
}

// ImageResource 记录一张已经栅格化的图片。
// Width/Height 为排版尺寸（mm），PixelWidth/PixelHeight 为位图分辨率。
type ImageResource struct {
	Name        string      `json:"name"`
	Width       float64     `json:"width"`
	Height      float64     `json:"height"`
	PixelWidth  int         `json:"pixelWidth"`
	PixelHeight int         `json:"pixelHeight"`
	Image       image.Image `json:"-"`
}

// Color 采用 0-255 的 RGB 数值。
type Color struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

// Page 记录页面尺寸、边距与最终可以直接渲染的元素。
// Texts 只承载标题等自由文本，二维码与说明文字放在 Blocks 中。
type Page struct {
	Width  float64   `json:"width"`
	Height float64   `json:"height"`
	Margin Margin    `json:"margin"`
	Texts  []TextBox `json:"texts"`
	Blocks []Block   `json:"blocks"`
}

// UsableWidth 返回扣除左右边距后的可用宽度（mm）。
func (p Page) UsableWidth() float64 { return p.Width - p.Margin.Left - p.Margin.Right }

// UsableHeight 返回扣除上下边距后的可用高度（mm）。
func (p Page) UsableHeight() float64 { return p.Height - p.Margin.Top - p.Margin.Bottom }

// Block 是一个不可拆分的排版单元：二维码图片加其下方的标识说明。
type Block struct {
	Index      int      `json:"index"`
	Identifier string   `json:"identifier"`
	X          float64  `json:"x"`
	Y          float64  `json:"y"`
	Width      float64  `json:"width"`
	Height     float64  `json:"height"`
	Image      ImageBox `json:"image"`
	Caption    TextBox  `json:"caption"`
	// Oversize 表示该块超出了可用区域，图片已被缩小并独占一页。
	Oversize bool `json:"oversize,omitempty"`
}

// Margin 以毫米为单位。
type Margin struct {
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
}

// UniformMargin 返回四边相同的边距。
func UniformMargin(v float64) Margin {
	return Margin{Top: v, Right: v, Bottom: v, Left: v}
}

// TextBox 表示一个已经排好坐标的文本块。
type TextBox struct {
	Content    string     `json:"content"`
	X          float64    `json:"x"`
	Y          float64    `json:"y"`
	Width      float64    `json:"width"`
	LineHeight float64    `json:"lineHeight"`
	Font       string     `json:"font"`
	FontSize   float64    `json:"fontSize"`
	Color      Color      `json:"color"`
	Lines      []TextLine `json:"lines"`
	Height     float64    `json:"height"`
	Align      string     `json:"align,omitempty"` // 文本水平对齐方式：left/center/right（默认 left）
	Wrap       string     `json:"wrap,omitempty"`  // 折行策略：anywhere(默认)/break-word/nowrap
}

// TextLine 表示排版后的一行文本内容及其宽高。
type TextLine struct {
	Content   string  `json:"content"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	GapBefore float64 `json:"gapBefore,omitempty"`
}

// ImageBox 用于描述图片位置与尺寸，Ref 指向 ResourceSet.Images 中的资源名。
type ImageBox struct {
	Ref    string  `json:"ref"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// DocumentMeta 保存 PDF 元信息。
type DocumentMeta struct {
	Title    string   `json:"title"`
	Author   string   `json:"author"`
	Subject  string   `json:"subject"`
	Creator  string   `json:"creator"`
	Keywords []string `json:"keywords"`
}
