package foundry

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/ByLCY/qrfoundry/dsl"
	"github.com/ByLCY/qrfoundry/layout"
	"github.com/ByLCY/qrfoundry/qr"
)

// LoadSettingsFile 读取设置文件，见 LoadSettings。
func LoadSettingsFile(path string) (Settings, error) {
	f, err := os.Open(path)
	if err != nil {
		return Settings{}, err
	}
	defer f.Close()
	s, err := LoadSettings(f)
	if err != nil {
		return Settings{}, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// LoadSettings 解析设置文件并覆盖到 DefaultSettings 之上。
// 只检查语法与类型，取值范围留给 Settings.Validate。
func LoadSettings(r io.Reader) (Settings, error) {
	file, err := dsl.Parse(r)
	if err != nil {
		return Settings{}, fmt.Errorf("解析设置失败: %w", err)
	}
	if file.Version != "v1" {
		return Settings{}, fmt.Errorf("不支持的设置版本 %q", file.Version)
	}
	s := DefaultSettings()
	for _, sec := range file.Sections {
		switch {
		case sec.Document != nil:
			err = applyDocument(&s.Document, sec.Document.Block)
		case sec.QR != nil:
			err = applyRender(&s.Render, sec.QR.Block)
		case sec.Page != nil:
			err = applyPage(&s.Page, sec.Page)
		}
		if err != nil {
			return Settings{}, err
		}
	}
	return s, nil
}

func applyDocument(d *DocumentOptions, b *dsl.Block) error {
	for _, a := range b.Assignments {
		v := a.Value.Text()
		switch a.Key {
		case "title":
			d.Title = v
		case "filename":
			d.Filename = v
		case "caption":
			d.Caption = v
		case "title_font":
			d.TitleFont = v
		case "caption_font":
			d.CaptionFont = v
		case "count":
			n, err := atoi(a)
			if err != nil {
				return err
			}
			d.Count = n
		default:
			return unknownKey("document", a)
		}
	}
	return nil
}

func applyRender(o *qr.RenderOptions, b *dsl.Block) error {
	for _, a := range b.Assignments {
		v := a.Value.Text()
		var err error
		switch a.Key {
		case "width":
			o.PixelWidth, err = atoi(a)
		case "margin":
			o.Margin, err = atoi(a)
		case "scale":
			o.Scale, err = strconv.ParseFloat(v, 64)
			if err != nil {
				err = fmt.Errorf("%s: qr.scale 应为数字，实际为 %q", a.Pos, v)
			}
		case "level":
			o.ErrorCorrection, err = qr.ParseErrorCorrection(v)
			if err != nil {
				err = fmt.Errorf("%s: qr.level: %w", a.Pos, err)
			}
		case "dark":
			o.Foreground = v
		case "light":
			o.Background = v
		default:
			err = unknownKey("qr", a)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// applyPage 解析 `page <size> [portrait|landscape] [margin <1-4 个长度>]`。
func applyPage(p *layout.PageOptions, sec *dsl.PageSection) error {
	p.Size = strings.ToUpper(sec.Size)
	params := sec.Params
	for i := 0; i < len(params); i++ {
		tok := params[i]
		switch strings.ToLower(tok.Value) {
		case "portrait", "landscape":
			o, err := layout.ParseOrientation(tok.Value)
			if err != nil {
				return err
			}
			p.Orientation = o
		case "margin":
			var values []string
			for i+1 < len(params) && params[i+1].Type == "Number" && len(values) < 4 {
				i++
				values = append(values, params[i].Value)
			}
			if len(values) == 0 {
				return fmt.Errorf("%s: page margin 至少需要一个长度", tok.Pos)
			}
			m, err := layout.ParseMargin(values)
			if err != nil {
				return fmt.Errorf("%s: page margin: %w", tok.Pos, err)
			}
			p.Margin = m
		default:
			return fmt.Errorf("%s: 无法识别的页面参数 %q", tok.Pos, tok.Value)
		}
	}
	return nil
}

func atoi(a *dsl.Assignment) (int, error) {
	v := strings.TrimSuffix(a.Value.Text(), "px")
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %s 应为整数，实际为 %q", a.Pos, a.Key, a.Value.Text())
	}
	return n, nil
}

func unknownKey(section string, a *dsl.Assignment) error {
	return fmt.Errorf("%s: %s 中未知的设置项 %q", a.Pos, section, a.Key)
}
