// Package config 读取 orderdoc.yaml 与 ORDERDOC_ 前缀的环境变量，
// 并转换为各组件使用的参数。
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ByLCY/orderpdf/docerr"
	"github.com/ByLCY/orderpdf/fonts"
	"github.com/ByLCY/orderpdf/layout"
	"github.com/ByLCY/orderpdf/logger"
	"github.com/ByLCY/orderpdf/pagespec"
	"github.com/ByLCY/orderpdf/thumbnail"
)

// EnvPrefix 是环境变量前缀，例如 ORDERDOC_FONTS_CJK_OVERRIDE。
const EnvPrefix = "ORDERDOC"

// Config holds all configuration for the pipeline
type Config struct {
	Log       LogConfig
	Page      PageConfig
	Thumbnail ThumbnailConfig
	Fonts     FontsConfig
	Storage   StorageConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// PageConfig 以字符串形式保存几何参数，由 pagespec 解析。
type PageConfig struct {
	Spec         string // 例如 "A4 portrait margin 20mm 15mm"
	Columns      string // 缩略图、数量、备注列宽，例如 "32mm 30mm 45mm"
	MinRowHeight string
	ThumbHeight  string
	Padding      string
	LineHeight   string
	Language     string // en, fr
	Title        string // 覆盖默认标题
	FontSizes    FontSizeConfig
}

// FontSizeConfig 字号（pt）
type FontSizeConfig struct {
	Title    float64
	Meta     float64
	Header   float64
	Product  float64
	Quantity float64
	Remark   float64
}

// ThumbnailConfig 缩略图归一化参数
type ThumbnailConfig struct {
	Width      int
	Height     int
	Background string
	Format     string // jpg, png
	Quality    int
	Workers    int
}

// FontsConfig 字体覆盖路径与系统目录扫描
type FontsConfig struct {
	LatinRegularOverride string
	LatinBoldOverride    string
	CJKOverride          string
	ScanSystem           bool
	SystemDirs           []string
}

// StorageConfig 订单产物的根目录
type StorageConfig struct {
	BaseDir string
}

// Load 读取配置。file 为空时在当前目录查找 orderdoc.yaml，找不到则只使用默认值与环境变量。
func Load(file string) (*Config, error) {
	v := viper.New()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("orderdoc")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Page: PageConfig{
			Spec:         v.GetString("page.spec"),
			Columns:      v.GetString("page.columns"),
			MinRowHeight: v.GetString("page.min_row_height"),
			ThumbHeight:  v.GetString("page.thumb_height"),
			Padding:      v.GetString("page.padding"),
			LineHeight:   v.GetString("page.line_height"),
			Language:     v.GetString("page.language"),
			Title:        v.GetString("page.title"),
			FontSizes: FontSizeConfig{
				Title:    v.GetFloat64("page.font_sizes.title"),
				Meta:     v.GetFloat64("page.font_sizes.meta"),
				Header:   v.GetFloat64("page.font_sizes.header"),
				Product:  v.GetFloat64("page.font_sizes.product"),
				Quantity: v.GetFloat64("page.font_sizes.quantity"),
				Remark:   v.GetFloat64("page.font_sizes.remark"),
			},
		},
		Thumbnail: ThumbnailConfig{
			Width:      v.GetInt("thumbnail.width"),
			Height:     v.GetInt("thumbnail.height"),
			Background: v.GetString("thumbnail.background"),
			Format:     v.GetString("thumbnail.format"),
			Quality:    v.GetInt("thumbnail.quality"),
			Workers:    v.GetInt("thumbnail.workers"),
		},
		Fonts: FontsConfig{
			LatinRegularOverride: v.GetString("fonts.latin_regular_override"),
			LatinBoldOverride:    v.GetString("fonts.latin_bold_override"),
			CJKOverride:          v.GetString("fonts.cjk_override"),
			ScanSystem:           v.GetBool("fonts.scan_system"),
			SystemDirs:           v.GetStringSlice("fonts.system_dirs"),
		},
		Storage: StorageConfig{
			BaseDir: v.GetString("storage.base_dir"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults 与 layout.DefaultTableOptions、thumbnail.DefaultOptions 保持一致。
func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stderr")

	v.SetDefault("page.spec", "A4 portrait margin 20mm 15mm")
	v.SetDefault("page.columns", "32mm 30mm 45mm")
	v.SetDefault("page.min_row_height", "26mm")
	v.SetDefault("page.thumb_height", "22mm")
	v.SetDefault("page.padding", "3mm")
	v.SetDefault("page.line_height", "5.2mm")
	v.SetDefault("page.language", "en")
	v.SetDefault("page.font_sizes.title", 16)
	v.SetDefault("page.font_sizes.meta", 10)
	v.SetDefault("page.font_sizes.header", 9)
	v.SetDefault("page.font_sizes.product", 11)
	v.SetDefault("page.font_sizes.quantity", 10)
	v.SetDefault("page.font_sizes.remark", 10)

	v.SetDefault("thumbnail.width", 800)
	v.SetDefault("thumbnail.height", 600)
	v.SetDefault("thumbnail.background", "#f5f5f5")
	v.SetDefault("thumbnail.format", "jpg")
	v.SetDefault("thumbnail.quality", 85)
	v.SetDefault("thumbnail.workers", 4)

	v.SetDefault("fonts.scan_system", true)

	v.SetDefault("storage.base_dir", "orders")
}

func (c *Config) validate() error {
	if _, err := c.TableOptions(); err != nil {
		return err
	}
	if _, err := c.ThumbnailOptions(); err != nil {
		return err
	}
	if strings.TrimSpace(c.Storage.BaseDir) == "" {
		return docerr.Invalid("storage.base_dir 不能为空")
	}
	return nil
}

// TableOptions 把页面配置转换为布局参数。
func (c *Config) TableOptions() (layout.TableOptions, error) {
	opts := layout.DefaultTableOptions()
	p := c.Page

	page, err := pagespec.ParsePage(p.Spec)
	if err != nil {
		return opts, err
	}
	opts.PageWidth, opts.PageHeight, opts.Margin = page.Width, page.Height, page.Margin

	cols, err := pagespec.ParseLengths(p.Columns)
	if err != nil {
		return opts, err
	}
	if len(cols) != 3 {
		return opts, docerr.Invalid(fmt.Sprintf("page.columns 需要 3 个宽度（缩略图、数量、备注），得到 %d 个", len(cols)))
	}
	opts.ThumbColumn, opts.QtyColumn, opts.RemarkColumn = cols[0], cols[1], cols[2]

	for _, f := range []struct {
		raw string
		dst *float64
	}{
		{p.MinRowHeight, &opts.MinRowHeight},
		{p.ThumbHeight, &opts.ThumbHeight},
		{p.Padding, &opts.Padding},
	} {
		if f.raw == "" {
			continue
		}
		if *f.dst, err = pagespec.ParseLength(f.raw); err != nil {
			return opts, err
		}
	}

	if p.LineHeight != "" {
		lh, err := pagespec.ParseLineHeight(p.LineHeight)
		if err != nil {
			return opts, err
		}
		opts.LineHeight = lh.ResolveMM(p.FontSizes.Product)
	}

	if labels, ok := layout.LabelsFor(p.Language); ok {
		opts.Labels = labels
	} else {
		return opts, docerr.Invalid(fmt.Sprintf("不支持的语言 %q", p.Language))
	}
	if p.Title != "" {
		opts.Labels.Title = p.Title
	}

	fs := p.FontSizes
	opts.Fonts = layout.FontSizes{
		Title:    fs.Title,
		Meta:     fs.Meta,
		Header:   fs.Header,
		Product:  fs.Product,
		Quantity: fs.Quantity,
		Remark:   fs.Remark,
	}
	return opts, opts.Validate()
}

// ThumbnailOptions 把缩略图配置转换为归一化参数。
func (c *Config) ThumbnailOptions() (thumbnail.Options, error) {
	t := c.Thumbnail
	opts := thumbnail.DefaultOptions()
	opts.Width, opts.Height, opts.Quality = t.Width, t.Height, t.Quality

	if t.Background != "" {
		bg, err := pagespec.ParseColor(t.Background)
		if err != nil {
			return opts, err
		}
		opts.Background.R, opts.Background.G, opts.Background.B = uint8(bg.R), uint8(bg.G), uint8(bg.B)
	}
	if t.Format != "" {
		f, err := thumbnail.ParseFormat(t.Format)
		if err != nil {
			return opts, err
		}
		opts.Format = f
	}
	return opts, opts.Validate()
}

// FontOptions 组装字体注册表参数：覆盖路径优先，其次内置候选，最后扫描系统目录。
func (c *Config) FontOptions(log *zap.Logger) fonts.Options {
	overrides := map[fonts.Role]string{}
	for role, path := range map[fonts.Role]string{
		fonts.LatinRegular: c.Fonts.LatinRegularOverride,
		fonts.LatinBold:    c.Fonts.LatinBoldOverride,
		fonts.CJK:          c.Fonts.CJKOverride,
	} {
		if strings.TrimSpace(path) != "" {
			overrides[role] = strings.TrimSpace(path)
		}
	}
	var dirs []string
	dirs = append(dirs, c.Fonts.SystemDirs...)
	if c.Fonts.ScanSystem {
		dirs = append(dirs, fonts.DefaultSystemDirs()...)
	}
	return fonts.Options{
		Candidates: fonts.DefaultCandidates(),
		Overrides:  overrides,
		SystemDirs: dirs,
		Logger:     log,
	}
}

// LoggerConfig 返回 logger 包使用的配置。
func (c *Config) LoggerConfig() *logger.Config {
	cfg := logger.DefaultConfig()
	if c.Log.Level != "" {
		cfg.Level = c.Log.Level
	}
	if c.Log.Format != "" {
		cfg.Format = c.Log.Format
	}
	if c.Log.Output != "" {
		cfg.Output = c.Log.Output
	}
	return cfg
}
