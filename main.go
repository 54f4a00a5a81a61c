package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ByLCY/qrfoundry/foundry"
	"github.com/ByLCY/qrfoundry/layout"
	"github.com/ByLCY/qrfoundry/qr"
	canvasrenderer "github.com/ByLCY/qrfoundry/renderer/canvas"
	"github.com/ByLCY/qrfoundry/validate"
)

const (
	pollInterval = 500 * time.Millisecond
	previewDPMM  = 4.0
)

func main() {
	config := flag.String("config", "", "设置文件路径，留空时使用默认设置")
	outDir := flag.String("out", "output", "PDF 输出目录")
	debug := flag.String("debug", "", "布局调试 JSON 输出路径")
	preview := flag.String("preview", "", "第一页预览 PNG 输出路径")
	watch := flag.Bool("watch", false, "监视设置文件，修改后防抖重新生成")
	touch := flag.Bool("touch", false, "关闭自动提交，按回车提交（触屏/小屏模式）")
	interval := flag.Duration("interval", foundry.DefaultInterval, "自动提交前的等待时间")
	logLevel := flag.String("log-level", "info", "日志级别 (trace|debug|info|warn|error)")
	fontFlags := fontList{}
	flag.Var(fontFlags, "font", "注册内置字体 name=path，可在设置中以 built-in:name 引用（可重复）")
	flag.Parse()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid log level")
	}
	zerolog.SetGlobalLevel(level)

	if *watch && *config == "" {
		log.Fatal().Msg("-watch requires -config")
	}

	settings := foundry.DefaultSettings()
	baseDir := "."
	if *config != "" {
		baseDir = filepath.Dir(*config)
		settings, err = foundry.LoadSettingsFile(*config)
		if err != nil {
			log.Fatal().Err(err).Msg("load settings")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r, err := canvasrenderer.NewRendererWithOptions(canvasrenderer.Options{BaseDir: baseDir, Fonts: fontFlags})
	if err != nil {
		log.Fatal().Err(err).Msg("load fonts")
	}
	out := &outputs{renderer: r, dir: *outDir, debugPath: *debug, previewPath: *preview}
	session := foundry.NewSession(r, foundry.SessionOptions{Logger: &log.Logger})
	session.OnUpdate(out.publish)

	if _, err := session.Apply(ctx, settings); err != nil {
		reportInvalid(err)
		log.Fatal().Err(err).Msg("generate document")
	}
	if !*watch {
		return
	}

	bridge := foundry.NewBridge(settings, func(s foundry.Settings) {
		if _, err := session.Apply(ctx, s); err != nil {
			if errors.Is(err, foundry.ErrSuperseded) {
				return
			}
			reportInvalid(err)
			log.Error().Err(err).Msg("regenerate document")
		}
	}, foundry.BridgeOptions{
		Interval:   *interval,
		ManualOnly: *touch,
		Logger:     &log.Logger,
	})
	defer bridge.Close()

	if *touch {
		go submitOnEnter(bridge)
		log.Info().Msg("auto-commit disabled, press Enter to submit changes or type reset to discard them")
	}
	watchFile(ctx, *config, bridge)
}

// outputs 在每个新批次安装后写出 PDF、调试 JSON 与预览图。
type outputs struct {
	renderer    *canvasrenderer.Renderer
	dir         string
	debugPath   string
	previewPath string
}

func (o *outputs) publish(b *foundry.Batch) {
	path, err := foundry.Export(b.Layout, o.renderer, o.dir, b.Settings.OutputName())
	if err != nil {
		log.Error().Err(err).Msg("export pdf")
		return
	}
	log.Info().
		Str("file", path).
		Int("codes", len(b.Images)).
		Int("skipped", b.Skipped()).
		Int("pages", len(b.Layout.Pages)).
		Msg("pdf written")

	if o.debugPath != "" {
		if err := writeDebug(b.Layout, o.debugPath); err != nil {
			log.Error().Err(err).Msg("write layout debug json")
		}
	}
	if o.previewPath != "" {
		if err := writePreview(o.renderer, b.Layout, o.previewPath); err != nil {
			log.Error().Err(err).Msg("write preview")
		}
	}
}

func writeDebug(result *layout.Result, debugPath string) error {
	if err := os.MkdirAll(filepath.Dir(debugPath), 0o755); err != nil {
		return fmt.Errorf("创建调试目录失败: %w", err)
	}
	if err := layout.WriteDebugJSON(result, debugPath); err != nil {
		return fmt.Errorf("输出调试 JSON 失败: %w", err)
	}
	return nil
}

func writePreview(r *canvasrenderer.Renderer, result *layout.Result, path string) error {
	img, err := r.Preview(result, 0, previewDPMM)
	if err != nil {
		return fmt.Errorf("栅格化预览失败: %w", err)
	}
	data, err := qr.PNG(img)
	if err != nil {
		return fmt.Errorf("编码预览失败: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// watchFile 轮询设置文件的修改时间，每次变化都作为一次编辑交给 bridge。
func watchFile(ctx context.Context, path string, bridge *foundry.Bridge) {
	last := modTime(path)
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	log.Info().Str("file", path).Msg("watching settings")
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		mt := modTime(path)
		if mt.Equal(last) {
			continue
		}
		last = mt
		s, err := foundry.LoadSettingsFile(path)
		if err != nil {
			log.Warn().Err(err).Msg("settings file not applied")
			continue
		}
		bridge.Edit(func(draft *foundry.Settings) { *draft = s })
		if err := s.Validate(); err != nil {
			reportInvalid(err)
		}
	}
}

// submitOnEnter 回车提交草稿；输入 reset 丢弃草稿，恢复为上次提交的设置。
func submitOnEnter(bridge *foundry.Bridge) {
	sc := bufio.NewScanner(os.Stdin)
	for sc.Scan() {
		if strings.TrimSpace(sc.Text()) == "reset" {
			bridge.Reset()
			log.Info().Msg("draft discarded")
			continue
		}
		if err := bridge.Submit(); err != nil {
			reportInvalid(err)
		}
	}
}

func reportInvalid(err error) {
	var errs validate.Errors
	if !errors.As(err, &errs) {
		return
	}
	for field, msg := range errs {
		log.Warn().Str("field", field).Msg(msg)
	}
}

func modTime(path string) time.Time {
	fi, err := os.Stat(path)
	if err != nil {
		return time.Time{}
	}
	return fi.ModTime()
}

// fontList 收集 -font name=path 参数。
type fontList map[string]canvasrenderer.Resource

func (f fontList) String() string {
	names := make([]string, 0, len(f))
	for name := range f {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ",")
}

func (f fontList) Set(v string) error {
	name, path, ok := strings.Cut(v, "=")
	name = strings.TrimSpace(name)
	path = strings.TrimSpace(path)
	if !ok || name == "" || path == "" {
		return fmt.Errorf("字体参数 %q 格式应为 name=path", v)
	}
	f[name] = canvasrenderer.Resource{Path: path}
	return nil
}
