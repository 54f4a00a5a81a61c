package canvasrenderer

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"
	"github.com/tdewolff/canvas/renderers/rasterizer"

	"github.com/ByLCY/qrfoundry/fonts"
	"github.com/ByLCY/qrfoundry/layout"
	"github.com/ByLCY/qrfoundry/renderer"
)

// Renderer draws layout results via github.com/tdewolff/canvas.
type Renderer struct {
	baseDir string

	fontBlobs map[string][]byte // by unique name

	fontMu         sync.Mutex
	fontFamilies   map[string]*fontFamilyEntry
	fallbackFamily *canvas.FontFamily
}

var (
	_ renderer.Renderer  = (*Renderer)(nil)
	_ renderer.Previewer = (*Renderer)(nil)
	_ layout.Typesetter  = (*Renderer)(nil)
)

type fontFamilyEntry struct {
	family *canvas.FontFamily
	style  canvas.FontStyle
}

// Options configures the canvas renderer.
type Options struct {
	// BaseDir 用于解析字体文件的相对路径，通常为设置文件所在目录。
	BaseDir string
	Fonts   map[string]Resource // fonts accessible via built-in:<name>
}

// Resource can be provided either by Bytes or by Path.
type Resource struct {
	Bytes []byte
	Path  string
}

// NewRenderer creates a canvas-based renderer rooted at baseDir for resolving font paths.
func NewRenderer(baseDir string) *Renderer {
	return &Renderer{
		baseDir:      baseDir,
		fontBlobs:    map[string][]byte{},
		fontFamilies: map[string]*fontFamilyEntry{},
	}
}

// NewRendererWithOptions creates a renderer with injected fonts and optional baseDir.
// 以 Path 提供的字体在此处读取，读取失败直接返回错误。
func NewRendererWithOptions(opts Options) (*Renderer, error) {
	r := NewRenderer(opts.BaseDir)
	for name, res := range opts.Fonts {
		if name == "" {
			continue
		}
		if len(res.Bytes) > 0 {
			r.fontBlobs[name] = res.Bytes
			continue
		}
		if res.Path == "" {
			return nil, fmt.Errorf("字体 %s 缺少数据或路径", name)
		}
		data, err := os.ReadFile(res.Path)
		if err != nil {
			return nil, fmt.Errorf("读取字体 %s 失败: %w", name, err)
		}
		r.fontBlobs[name] = data
	}
	return r, nil
}

// Render renders the result into a PDF byte slice.
func (r *Renderer) Render(result *layout.Result) ([]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("渲染结果为空")
	}
	if len(result.Pages) == 0 {
		return nil, fmt.Errorf("缺少可渲染的页面")
	}

	var buf bytes.Buffer
	writer := pdf.New(&buf, result.Pages[0].Width, result.Pages[0].Height, nil)
	r.applyMeta(writer, result.Meta)
	for i, page := range result.Pages {
		if i > 0 {
			writer.NewPage(page.Width, page.Height)
		}
		c, err := r.pageCanvas(page, result.Resources, false)
		if err != nil {
			return nil, fmt.Errorf("第 %d 页绘制失败: %w", i+1, err)
		}
		c.RenderTo(writer)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("写入 PDF 失败: %w", err)
	}
	return buf.Bytes(), nil
}

// Preview 将指定页面栅格化为位图，背景为白色。
func (r *Renderer) Preview(result *layout.Result, page int, dpmm float64) (image.Image, error) {
	if result == nil {
		return nil, fmt.Errorf("渲染结果为空")
	}
	if page < 0 || page >= len(result.Pages) {
		return nil, fmt.Errorf("页码 %d 超出范围（共 %d 页）", page+1, len(result.Pages))
	}
	if dpmm <= 0 {
		dpmm = 4
	}
	c, err := r.pageCanvas(result.Pages[page], result.Resources, true)
	if err != nil {
		return nil, err
	}
	return rasterizer.Draw(c, canvas.DPMM(dpmm), canvas.DefaultColorSpace), nil
}

func (r *Renderer) pageCanvas(page layout.Page, resources layout.ResourceSet, background bool) (*canvas.Canvas, error) {
	c := canvas.New(page.Width, page.Height)
	ctx := canvas.NewContext(c)
	ctx.SetCoordSystem(canvas.CartesianIV) // 使坐标与布局保持左上角为原点
	if background {
		ctx.SetFillColor(canvas.White)
		ctx.SetStrokeColor(color.RGBA{})
		ctx.DrawPath(0, 0, canvas.Rectangle(page.Width, page.Height))
	}
	if err := r.drawPage(ctx, page, resources); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *Renderer) applyMeta(writer *pdf.PDF, meta layout.DocumentMeta) {
	if writer == nil {
		return
	}
	keywords := strings.Join(meta.Keywords, ", ")
	writer.SetInfo(meta.Title, meta.Subject, keywords, meta.Author, meta.Creator)
}

// LayoutLines 实现 layout.Typesetter 接口，使用贪心换行算法。
// 约定：fontSize/lineHeight 入参均为毫米（mm）。渲染器内部与字体系统交互使用 pt，并在边界做 mm↔pt 换算。
func (r *Renderer) LayoutLines(content string, width float64, font layout.FontResource, fontSize, lineHeight float64, wrap string) ([]layout.TextLine, error) {
	face, err := r.fontFace(font, toPt(fontSize), layout.Color{R: 30, G: 30, B: 30})
	if err != nil {
		return nil, err
	}

	if wrap == "" {
		wrap = "anywhere"
	}
	lines := greedyWrapTokens(content, width, face, wrap)
	textHeight := face.Metrics().LineHeight
	if textHeight <= 0 {
		textHeight = lineHeight
	}
	leading := math.Max(lineHeight-textHeight, 0)
	if len(lines) == 0 {
		lines = []layout.TextLine{{Height: textHeight}}
	}
	for i := range lines {
		if lines[i].Height <= 0 {
			lines[i].Height = textHeight
		}
		if i > 0 {
			lines[i].GapBefore = leading
		}
	}
	return lines, nil
}

func (r *Renderer) drawPage(ctx *canvas.Context, page layout.Page, resources layout.ResourceSet) error {
	for _, tb := range page.Texts {
		if err := r.drawTextBox(ctx, tb, resolveFontResource(tb.Font, resources.Fonts)); err != nil {
			return err
		}
	}
	for _, blk := range page.Blocks {
		if err := r.drawImage(ctx, blk.Image, resources.Images); err != nil {
			return fmt.Errorf("二维码 %s: %w", blk.Identifier, err)
		}
		if err := r.drawTextBox(ctx, blk.Caption, resolveFontResource(blk.Caption.Font, resources.Fonts)); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) drawTextBox(ctx *canvas.Context, tb layout.TextBox, fontRes layout.FontResource) error {
	// TextBox 的坐标/字号/行高均为 mm；创建字体面需要 pt，这里做一次 mm→pt。
	face, err := r.fontFace(fontRes, toPt(tb.FontSize), tb.Color)
	if err != nil {
		return err
	}

	lines := tb.Lines
	if len(lines) == 0 {
		lines = []layout.TextLine{{Content: tb.Content, Width: tb.Width, Height: tb.LineHeight}}
	}

	var textAlign canvas.TextAlign
	var anchorX float64
	switch strings.ToLower(tb.Align) {
	case "center":
		textAlign = canvas.Center
		anchorX = tb.X + tb.Width/2
	case "right", "end":
		textAlign = canvas.Right
		anchorX = tb.X + tb.Width
	default:
		textAlign = canvas.Left
		anchorX = tb.X
	}

	ascent := face.Metrics().Ascent
	cursorY := tb.Y
	for _, line := range lines {
		cursorY += line.GapBefore
		lineHeight := line.Height
		if lineHeight <= 0 {
			lineHeight = tb.FontSize
		}
		// 基线位置：行顶部加上字体上升部
		ctx.DrawText(anchorX, cursorY+ascent, canvas.NewTextLine(face, line.Content, textAlign))
		cursorY += lineHeight
	}
	return nil
}

func (r *Renderer) drawImage(ctx *canvas.Context, box layout.ImageBox, images map[string]layout.ImageResource) error {
	res, ok := images[box.Ref]
	if !ok || res.Image == nil {
		return fmt.Errorf("找不到图片资源 %s", box.Ref)
	}
	px := res.Image.Bounds().Dx()
	if px <= 0 || box.Width <= 0 {
		return nil
	}
	ctx.DrawImage(box.X, box.Y, res.Image, canvas.DPMM(float64(px)/box.Width))
	return nil
}

func (r *Renderer) fontFace(font layout.FontResource, size float64, col layout.Color) (*canvas.FontFace, error) {
	family, style, err := r.ensureFontFamily(font)
	if err != nil {
		return nil, err
	}
	return family.Face(size, colorFromLayout(col), style, canvas.FontNormal), nil
}

func (r *Renderer) ensureFontFamily(font layout.FontResource) (*canvas.FontFamily, canvas.FontStyle, error) {
	key := fontCacheKey(font)
	r.fontMu.Lock()
	defer r.fontMu.Unlock()

	if entry, ok := r.fontFamilies[key]; ok {
		return entry.family, entry.style, nil
	}

	style := parseFontStyle(font.Style)
	familyName := font.Name
	if familyName == "" {
		familyName = "Body"
	}
	family := canvas.NewFontFamily(familyName)

	if err := r.loadFontIntoFamily(family, font, style); err != nil {
		fallback, fbStyle, fbErr := r.fallback()
		if fbErr != nil {
			return nil, canvas.FontRegular, err
		}
		r.fontFamilies[key] = &fontFamilyEntry{family: fallback, style: fbStyle}
		return fallback, fbStyle, nil
	}

	r.fontFamilies[key] = &fontFamilyEntry{family: family, style: style}
	return family, style, nil
}

func (r *Renderer) loadFontIntoFamily(family *canvas.FontFamily, font layout.FontResource, style canvas.FontStyle) error {
	data, err := r.loadFontBytes(font)
	if err != nil {
		return err
	}
	return family.LoadFont(data, 0, style)
}

func (r *Renderer) loadFontBytes(font layout.FontResource) ([]byte, error) {
	src := font.Src
	if src == "" {
		return nil, fmt.Errorf("字体 %s 缺少 src", font.Name)
	}
	if strings.HasPrefix(src, "built-in:") || strings.HasPrefix(src, "builtin:") {
		name := strings.TrimPrefix(strings.TrimPrefix(src, "built-in:"), "builtin:")
		if blob, ok := r.fontBlobs[name]; ok {
			return blob, nil
		}
		return nil, fmt.Errorf("找不到内置字体资源 built-in:%s", name)
	}
	if strings.HasPrefix(src, "embed:") {
		return fonts.Load(src)
	}
	path := src
	if r.baseDir == "" && !filepath.IsAbs(path) {
		return nil, fmt.Errorf("未指定资源目录时不允许直接使用字体路径：%s（请改用 built-in: 或 embed:）", src)
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(r.baseDir, path)
	}
	return os.ReadFile(path)
}

func (r *Renderer) fallback() (*canvas.FontFamily, canvas.FontStyle, error) {
	if r.fallbackFamily != nil {
		return r.fallbackFamily, canvas.FontRegular, nil
	}
	data, err := fonts.Load("regular")
	if err != nil {
		return nil, canvas.FontRegular, err
	}
	family := canvas.NewFontFamily("qrfoundry-fallback")
	if err := family.LoadFont(data, 0, canvas.FontRegular); err != nil {
		return nil, canvas.FontRegular, err
	}
	r.fallbackFamily = family
	return family, canvas.FontRegular, nil
}

func resolveFontResource(name string, fonts map[string]layout.FontResource) layout.FontResource {
	if font, ok := fonts[name]; ok {
		return font
	}
	for _, font := range fonts {
		return font
	}
	return layout.FontResource{Name: "Body", Src: "embed:regular"}
}

func parseFontStyle(style string) canvas.FontStyle {
	s := strings.ToLower(style)
	result := canvas.FontRegular
	switch {
	case strings.Contains(s, "black"):
		result = canvas.FontBlack
	case strings.Contains(s, "extrabold"):
		result = canvas.FontExtraBold
	case strings.Contains(s, "semibold"), strings.Contains(s, "demibold"):
		result = canvas.FontSemiBold
	case strings.Contains(s, "bold"):
		result = canvas.FontBold
	case strings.Contains(s, "medium"):
		result = canvas.FontMedium
	case strings.Contains(s, "light"):
		result = canvas.FontLight
	}
	if strings.Contains(s, "italic") || strings.Contains(s, "oblique") {
		result |= canvas.FontItalic
	}
	return result
}

func fontCacheKey(font layout.FontResource) string {
	return fmt.Sprintf("%s|%s|%s", font.Name, font.Src, font.Style)
}

func colorFromLayout(c layout.Color) color.Color {
	return canvas.RGBA(float64(c.R)/255.0, float64(c.G)/255.0, float64(c.B)/255.0, 1.0)
}

// toPt 将毫米(mm)转换为点(pt)。
func toPt(mm float64) float64 { return mm * layout.MmToPt }

// greedyWrapTokens 内部所有宽度均按 mm 处理。
func greedyWrapTokens(content string, width float64, face *canvas.FontFace, wrap string) []layout.TextLine {
	limit := width
	if limit <= 0 {
		limit = math.MaxFloat64
	}

	var lines []layout.TextLine
	var builder strings.Builder
	current := 0.0
	emit := func(force bool) {
		if builder.Len() == 0 {
			if force {
				lines = append(lines, layout.TextLine{})
			}
			return
		}
		lines = append(lines, layout.TextLine{Content: builder.String(), Width: current})
		builder.Reset()
		current = 0
	}
	appendText := func(s string, w float64) {
		if current > 0 && current+w > limit {
			emit(false)
		}
		builder.WriteString(s)
		current += w
	}

	// break-word：忽略空白机会，纯按宽度逐字切分（标识符通常没有空格）
	if wrap == "break-word" {
		for _, r := range content {
			if r == '\r' {
				continue
			}
			if r == '\n' {
				emit(true)
				continue
			}
			s := string(r)
			appendText(s, face.TextWidth(s))
		}
		emit(true)
		return lines
	}

	// 默认（anywhere）：优先在空白处分割，超过限制时在词内拆分
	for _, token := range tokenizeContent(content) {
		if token == "\n" {
			emit(true)
			continue
		}
		tokenWidth := face.TextWidth(token)
		if tokenWidth <= limit {
			appendText(token, tokenWidth)
			continue
		}
		for _, chunk := range splitTokenByWidth(token, limit, face) {
			appendText(chunk, face.TextWidth(chunk))
		}
	}
	emit(true)
	return lines
}

func tokenizeContent(s string) []string {
	var tokens []string
	var builder strings.Builder
	lastWasSpace := false
	flush := func() {
		if builder.Len() == 0 {
			return
		}
		tokens = append(tokens, builder.String())
		builder.Reset()
	}

	for _, r := range s {
		if r == '\r' {
			continue
		}
		if r == '\n' {
			flush()
			tokens = append(tokens, "\n")
			lastWasSpace = false
			continue
		}
		isSpace := unicode.IsSpace(r)
		if builder.Len() == 0 {
			lastWasSpace = isSpace
		} else if lastWasSpace != isSpace {
			flush()
			lastWasSpace = isSpace
		}
		builder.WriteRune(r)
	}
	flush()
	return tokens
}

func splitTokenByWidth(token string, limit float64, face *canvas.FontFace) []string {
	if limit <= 0 || limit == math.MaxFloat64 {
		return []string{token}
	}
	var parts []string
	var builder strings.Builder
	for _, r := range token {
		builder.WriteRune(r)
		if face.TextWidth(builder.String()) > limit && builder.Len() > 1 {
			runes := []rune(builder.String())
			parts = append(parts, string(runes[:len(runes)-1]))
			builder.Reset()
			builder.WriteRune(r)
		}
	}
	if builder.Len() > 0 {
		parts = append(parts, builder.String())
	}
	return parts
}
