package foundry

import (
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ByLCY/qrfoundry/binding"
	"github.com/ByLCY/qrfoundry/layout"
	"github.com/ByLCY/qrfoundry/qr"
	"github.com/ByLCY/qrfoundry/validate"
)

// DefaultExtension 在导出文件名缺少扩展名时补上。
const DefaultExtension = ".pdf"

const filenamePattern = `^[A-Za-z0-9._\- ]+$`

// DocumentOptions 描述一份批次文档。
type DocumentOptions struct {
	// Title 可以包含 ${count} 等占位符。
	Title    string `json:"title"`
	Count    int    `json:"count"`
	Filename string `json:"filename"`
	// Caption 是每个二维码下方的说明模板，为空时直接使用标识。
	Caption string `json:"caption"`
	// TitleFont/CaptionFont 为字体来源：embed:<name>、built-in:<name> 或相对设置文件的路径。
	// 为空时使用内置 Go 字体。
	TitleFont   string `json:"titleFont,omitempty"`
	CaptionFont string `json:"captionFont,omitempty"`
}

// Settings 是一次生成所需的全部选项，按值传递。
type Settings struct {
	Render   qr.RenderOptions   `json:"qr"`
	Page     layout.PageOptions `json:"page"`
	Document DocumentOptions    `json:"document"`
}

// DefaultSettings 返回首次打开时的设置。
func DefaultSettings() Settings {
	return Settings{
		Render: qr.DefaultRenderOptions(),
		Page:   layout.DefaultPageOptions(),
		Document: DocumentOptions{
			Title:    "Hello, world!",
			Count:    10,
			Filename: "codes.pdf",
			Caption:  "${id}",
		},
	}
}

// Validate 逐字段校验，所有失败一并以 validate.Errors 返回。
// 标题在替换占位符之后再检查模式。数量须在 1..999 之间。
func (s Settings) Validate() error {
	return s.validate(1)
}

// validateForDerive 与 Validate 相同，但允许数量为 0（只含标题的空文档）。
func (s Settings) validateForDerive() error {
	return s.validate(0)
}

func (s Settings) validate(minCount int) error {
	errs := validate.Errors{}

	errs.Add("document.title", validate.Text(s.renderTitle(), validate.TextRule{
		MaxLength: 128,
		Pattern:   validate.TextPattern,
		Required:  true,
	}))
	errs.Add("document.count", integer(s.Document.Count, minCount, 999))
	errs.Add("document.filename", validate.Text(s.Document.Filename, validate.TextRule{
		MaxLength: 128,
		Pattern:   filenamePattern,
		Required:  true,
	}))
	errs.Add("document.caption", validate.Text(s.Document.Caption, validate.TextRule{MaxLength: 128}))
	errs.Add("document.title_font", validate.Text(s.Document.TitleFont, validate.TextRule{MaxLength: 256}))
	errs.Add("document.caption_font", validate.Text(s.Document.CaptionFont, validate.TextRule{MaxLength: 256}))

	errs.Add("qr.width", integer(s.Render.PixelWidth, 32, 512))
	errs.Add("qr.margin", integer(s.Render.Margin, 0, 128))
	errs.Add("qr.scale", number(s.Render.Scale, 1, 32))
	errs.Add("qr.dark", validate.Color(s.Render.Foreground, validate.ColorRule{Required: true}))
	errs.Add("qr.light", validate.Color(s.Render.Background, validate.ColorRule{Required: true}))
	if _, err := qr.ParseErrorCorrection(string(s.Render.ErrorCorrection)); err != nil {
		errs.Add("qr.level", "Must be one of L, M, Q, H")
	}

	if _, ok := layout.LookupPaper(s.Page.Size); !ok {
		errs.Add("page.size", "Must be a supported page size")
	}
	if _, err := layout.ParseOrientation(string(s.Page.Orientation)); err != nil {
		errs.Add("page.orientation", "Must be portrait or landscape")
	}
	m := s.Page.Margin
	for field, v := range map[string]float64{
		"page.margin.top": m.Top, "page.margin.right": m.Right,
		"page.margin.bottom": m.Bottom, "page.margin.left": m.Left,
	} {
		errs.Add(field, validate.Number(formatFloat(v), validate.NumberRule{Min: ptr(0.0), Required: true}))
	}
	if _, ok := errs["page.size"]; !ok {
		if w, h, err := s.Page.Dimensions(); err == nil && (m.Left+m.Right >= w || m.Top+m.Bottom >= h) {
			errs.Add("page.margin", "Margins leave no room on the page")
		}
	}
	return errs.Err()
}

// OutputName 返回导出文件名，缺少扩展名时补上 .pdf。
func (s Settings) OutputName() string {
	name := strings.TrimSpace(s.Document.Filename)
	if name == "" {
		name = DefaultSettings().Document.Filename
	}
	if filepath.Ext(name) == "" {
		name += DefaultExtension
	}
	return name
}

// TemplateData 是标题与说明文字共用的占位数据，说明文字另有 id、index 与 n。
func (s Settings) TemplateData() map[string]any {
	return map[string]any{
		"count": s.Document.Count,
		"size":  s.Page.Size,
		"level": string(s.Render.ErrorCorrection),
	}
}

func (s Settings) renderTitle() string {
	return binding.Interpolate(s.Document.Title, s.TemplateData())
}

func integer(v, min, max int) string {
	return validate.Number(strconv.Itoa(v), validate.Range(float64(min), float64(max)))
}

func number(v, min, max float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "Must be a number"
	}
	return validate.Number(formatFloat(v), validate.Range(min, max))
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func ptr[T any](v T) *T { return &v }
