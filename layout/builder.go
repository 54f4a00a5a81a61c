package layout

import (
	"fmt"
	"math"
	"strings"
)

const (
	blockSpacing = 3.0 // 块与块之间、行与行之间的间距（mm）
	captionGap   = 1.0 // 图片与说明文字之间的间距（mm）

	titleFontSizePt   = 14.0
	captionFontSizePt = 9.0
	lineHeightFactor  = 1.4
)

var (
	titleColor   = Color{R: 59, G: 130, B: 246}
	captionColor = Color{R: 156, G: 163, B: 175}

	defaultTitleFont   = FontResource{Name: "Title", Src: "embed:bold", Style: "bold"}
	defaultCaptionFont = FontResource{Name: "Caption", Src: "embed:regular"}
)

// Input 是一次布局所需的全部数据：标题、按顺序排列的二维码以及页面设置。
type Input struct {
	Title string
	Items []Item
	Page  PageOptions
	// ImageWidth 为二维码图片的排版宽度（mm），<=0 时使用各图片自身宽度。
	ImageWidth float64
	Meta       DocumentMeta
}

// Item 是一个待排版的二维码及其说明文字。
type Item struct {
	Index      int
	Identifier string
	// Caption 为空时使用 Identifier。
	Caption string
	Image   ImageResource
}

// Build 将二维码按从左到右、自上而下的顺序排入固定尺寸的页面。
// 标题只出现在第一页；任何块都不会跨页拆分。
func Build(in Input, opts BuildOptions) (*Result, error) {
	width, height, err := in.Page.Dimensions()
	if err != nil {
		return nil, err
	}
	margin := in.Page.Margin
	if width-margin.Left-margin.Right <= 0 || height-margin.Top-margin.Bottom <= 0 {
		return nil, fmt.Errorf("页面边距超出纸张 %s 的尺寸", in.Page.Size)
	}

	titleFont := defaultTitleFont
	if opts.TitleFont != nil {
		titleFont = *opts.TitleFont
	}
	captionFont := defaultCaptionFont
	if opts.CaptionFont != nil {
		captionFont = *opts.CaptionFont
	}

	res := ResourceSet{
		Fonts: map[string]FontResource{
			titleFont.Name:   titleFont,
			captionFont.Name: captionFont,
		},
		Images: map[string]ImageResource{},
	}

	collector := newPageCollector(width, height, margin)
	flow := &flowContext{
		collector:   collector,
		cursorY:     collector.contentTop(),
		typesetter:  opts.Typesetter,
		captionFont: captionFont,
	}

	if strings.TrimSpace(in.Title) != "" {
		tb, err := composeTextBox(in.Title, margin.Left, flow.cursorY, collector.usableWidth(), titleFont, titleFontSizePt*PtToMm, titleColor, "center", "anywhere", opts.Typesetter)
		if err != nil {
			return nil, fmt.Errorf("标题排版失败: %w", err)
		}
		collector.curr().texts = append(collector.curr().texts, tb)
		flow.cursorY += tb.Height + blockSpacing
	}

	for i, item := range in.Items {
		name := item.Image.Name
		if name == "" {
			name = fmt.Sprintf("qr-%04d", i)
			item.Image.Name = name
		}
		blk, err := flow.composeBlock(item, in.ImageWidth)
		if err != nil {
			return nil, fmt.Errorf("第 %d 个二维码排版失败: %w", i, err)
		}
		item.Image.Width, item.Image.Height = blk.Image.Width, blk.Image.Height
		res.Images[name] = item.Image
		flow.place(blk)
	}
	flow.flushRow()

	meta := in.Meta
	if meta.Title == "" {
		meta.Title = in.Title
	}
	return &Result{
		Pages:     collector.pages(),
		Resources: res,
		Meta:      meta,
	}, nil
}

type pageAccumulator struct {
	texts  []TextBox
	blocks []Block
}

func (p *pageAccumulator) empty() bool {
	return len(p.texts) == 0 && len(p.blocks) == 0
}

type pageCollector struct {
	width   float64
	height  float64
	margin  Margin
	accs    []*pageAccumulator
	current int
}

func newPageCollector(width, height float64, margin Margin) *pageCollector {
	pc := &pageCollector{
		width:  width,
		height: height,
		margin: margin,
	}
	pc.newPage()
	return pc
}

func (pc *pageCollector) newPage() *pageAccumulator {
	acc := &pageAccumulator{}
	pc.accs = append(pc.accs, acc)
	pc.current = len(pc.accs) - 1
	return acc
}

func (pc *pageCollector) curr() *pageAccumulator {
	if len(pc.accs) == 0 {
		return pc.newPage()
	}
	return pc.accs[pc.current]
}

func (pc *pageCollector) contentTop() float64    { return pc.margin.Top }
func (pc *pageCollector) contentBottom() float64 { return pc.height - pc.margin.Bottom }
func (pc *pageCollector) usableWidth() float64   { return pc.width - pc.margin.Left - pc.margin.Right }
func (pc *pageCollector) usableHeight() float64  { return pc.contentBottom() - pc.contentTop() }

func (pc *pageCollector) pages() []Page {
	out := make([]Page, len(pc.accs))
	for i, acc := range pc.accs {
		out[i] = Page{
			Width:  pc.width,
			Height: pc.height,
			Margin: pc.margin,
			Texts:  acc.texts,
			Blocks: acc.blocks,
		}
	}
	return out
}

// flowContext 记录当前页的纵向游标以及尚未落位的一行块。
type flowContext struct {
	collector   *pageCollector
	cursorY     float64
	typesetter  Typesetter
	captionFont FontResource

	row      []Block
	rowWidth float64
	rowHigh  float64
}

// composeBlock 计算块的尺寸（坐标在 flushRow 时确定）。
// 超出可用区域的块会缩小图片，使图片始终落在可用宽高之内。
func (ctx *flowContext) composeBlock(item Item, imageWidth float64) (Block, error) {
	usableW := ctx.collector.usableWidth()
	usableH := ctx.collector.usableHeight()

	imgW := imageWidth
	if imgW <= 0 {
		imgW = item.Image.Width
	}
	if imgW <= 0 {
		imgW = float64(item.Image.PixelWidth) * PxToMm
	}
	if imgW <= 0 {
		return Block{}, fmt.Errorf("图片 %s 缺少宽度", item.Image.Name)
	}
	ratio := 1.0
	if item.Image.PixelWidth > 0 && item.Image.PixelHeight > 0 {
		ratio = float64(item.Image.PixelHeight) / float64(item.Image.PixelWidth)
	}

	oversize := false
	if imgW > usableW {
		imgW = usableW
		oversize = true
	}
	blockW := imgW

	caption := item.Caption
	if caption == "" {
		caption = item.Identifier
	}
	tb, err := composeTextBox(caption, 0, 0, blockW, ctx.captionFont, captionFontSizePt*PtToMm, captionColor, "center", "break-word", ctx.typesetter)
	if err != nil {
		return Block{}, err
	}

	imgH := imgW * ratio
	if imgH+captionGap+tb.Height > usableH {
		oversize = true
		imgH = usableH - captionGap - tb.Height
		if imgH <= 0 {
			// 说明文字本身已放不下，仍保证图片不超出可用高度
			imgH = math.Min(usableH, imgW*ratio)
		}
		imgW = imgH / ratio
	}

	return Block{
		Index:      item.Index,
		Identifier: item.Identifier,
		Width:      blockW,
		Height:     imgH + captionGap + tb.Height,
		Image: ImageBox{
			Ref:    item.Image.Name,
			Width:  imgW,
			Height: imgH,
		},
		Caption:  tb,
		Oversize: oversize,
	}, nil
}

// place 将块加入当前行；当前行放不下时先换行。
func (ctx *flowContext) place(b Block) {
	if b.Oversize {
		ctx.flushRow()
		if !ctx.collector.curr().empty() {
			ctx.pageBreak()
		}
		ctx.row = []Block{b}
		ctx.rowWidth = b.Width
		ctx.rowHigh = b.Height
		ctx.flushRow()
		// 独占一页：后续内容从新页开始
		ctx.cursorY = ctx.collector.contentBottom()
		return
	}
	need := b.Width
	if len(ctx.row) > 0 {
		need += ctx.rowWidth + blockSpacing
	}
	if len(ctx.row) > 0 && need > ctx.collector.usableWidth() {
		ctx.flushRow()
		need = b.Width
	}
	ctx.row = append(ctx.row, b)
	ctx.rowWidth = need
	if b.Height > ctx.rowHigh {
		ctx.rowHigh = b.Height
	}
}

// flushRow 把当前行落到页面上；剩余高度不足时先分页。
func (ctx *flowContext) flushRow() {
	if len(ctx.row) == 0 {
		return
	}
	if ctx.cursorY+ctx.rowHigh > ctx.collector.contentBottom() && !ctx.collector.curr().empty() {
		ctx.pageBreak()
	}
	acc := ctx.collector.curr()
	x := ctx.collector.margin.Left + (ctx.collector.usableWidth()-ctx.rowWidth)/2
	for _, b := range ctx.row {
		b.X = x
		b.Y = ctx.cursorY
		b.Image.X = x + (b.Width-b.Image.Width)/2
		b.Image.Y = ctx.cursorY
		b.Caption.X = x
		b.Caption.Y = ctx.cursorY + b.Image.Height + captionGap
		acc.blocks = append(acc.blocks, b)
		x += b.Width + blockSpacing
	}
	ctx.cursorY += ctx.rowHigh + blockSpacing
	ctx.row = nil
	ctx.rowWidth = 0
	ctx.rowHigh = 0
}

func (ctx *flowContext) pageBreak() {
	ctx.collector.newPage()
	ctx.cursorY = ctx.collector.contentTop()
}

func composeTextBox(content string, x, y, width float64, font FontResource, fontSize float64, color Color, align, wrap string, ts Typesetter) (TextBox, error) {
	lineHeight := fontSize * lineHeightFactor
	lines, err := layoutLines(content, width, font, fontSize, lineHeight, ts, wrap)
	if err != nil {
		return TextBox{}, err
	}

	totalHeight := 0.0
	defaultLeading := math.Max(lineHeight-fontSize, 0)
	for i := range lines {
		if lines[i].Height <= 0 {
			lines[i].Height = fontSize
		}
		if i == 0 {
			lines[i].GapBefore = 0
		} else if lines[i].GapBefore <= 0 {
			lines[i].GapBefore = defaultLeading
		}
		totalHeight += lines[i].GapBefore + lines[i].Height
	}

	return TextBox{
		Content:    content,
		X:          x,
		Y:          y,
		Width:      width,
		LineHeight: lineHeight,
		Font:       font.Name,
		FontSize:   fontSize,
		Color:      color,
		Lines:      lines,
		Height:     totalHeight,
		Align:      align,
		Wrap:       wrap,
	}, nil
}

// layoutLines 在没有排版后端时按显式换行拆分，宽度视为不受限。
func layoutLines(content string, width float64, font FontResource, fontSize, lineHeight float64, ts Typesetter, wrap string) ([]TextLine, error) {
	if ts == nil {
		parts := strings.Split(content, "\n")
		out := make([]TextLine, 0, len(parts))
		leading := math.Max(lineHeight-fontSize, 0)
		for _, l := range parts {
			out = append(out, TextLine{
				Content:   l,
				Width:     width,
				Height:    fontSize,
				GapBefore: leading,
			})
		}
		out[0].GapBefore = 0
		return out, nil
	}
	lines, err := ts.LayoutLines(content, width, font, fontSize, lineHeight, wrap)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		lines = []TextLine{{Content: "", Width: width, Height: fontSize}}
	}
	lines[0].GapBefore = 0
	return lines, nil
}
