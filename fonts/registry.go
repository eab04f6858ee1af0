// Package fonts 将三种逻辑字体角色解析为可渲染的具体字体。
//
// 解析只发生一次：首个调用方按候选路径探测字体文件并缓存角色映射，
// 之后映射不再变化，多个文档可以并发共享同一个 Registry。
package fonts

import (
	"errors"
	"fmt"
	"image/color"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tdewolff/canvas"
	"go.uber.org/zap"
	"golang.org/x/image/font/sfnt"

	"github.com/ByLCY/orderpdf/docerr"
)

// Role 是逻辑字体角色。
type Role int

const (
	LatinRegular Role = iota
	LatinBold
	CJK
)

// Roles 按解析顺序列出全部角色。
var Roles = []Role{LatinRegular, LatinBold, CJK}

func (r Role) String() string {
	switch r {
	case LatinRegular:
		return "latin-regular"
	case LatinBold:
		return "latin-bold"
	case CJK:
		return "cjk"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// cjkProbe 用来判断一个字体是否真的覆盖汉字。
const cjkProbe = '中'

// 单次目录扫描最多检查的文件数，避免在巨大的字体目录里长时间停留。
const maxScannedFiles = 4000

// Options 配置候选路径与日志。
type Options struct {
	Candidates Candidates
	// Overrides 优先于 Candidates 探测，通常来自环境变量。
	Overrides map[Role]string
	// SystemDirs 在所有 CJK 候选失败后被递归扫描。
	SystemDirs []string
	Logger     *zap.Logger
}

// Binding 记录某个角色最终绑定的字体。
type Binding struct {
	Role   Role
	ID     string // 注册后的字体标识
	Source string // 文件路径，或 embedded:<name>
	Index  int    // 字体集合（ttc）中的序号

	family *canvas.FontFamily
}

// Registry 持有角色到字体的映射。零值不可用，请使用 NewRegistry。
type Registry struct {
	opts   Options
	logger *zap.Logger

	once     sync.Once
	bindings map[Role]*Binding
	degraded bool

	widths sync.Map // widthKey -> float64（mm）
}

type widthKey struct {
	role Role
	size float64
	ch   rune
}

// NewRegistry 创建注册表；探测延迟到首次使用。
func NewRegistry(opts Options) *Registry {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{opts: opts, logger: logger}
}

// Resolve 返回角色到字体标识的映射，永不失败；重复调用不会重新探测文件。
func (r *Registry) Resolve() map[Role]string {
	r.ensure()
	out := make(map[Role]string, len(r.bindings))
	for role, b := range r.bindings {
		out[role] = b.ID
	}
	return out
}

// Binding 返回角色的绑定信息。
func (r *Registry) Binding(role Role) Binding {
	r.ensure()
	b, ok := r.bindings[role]
	if !ok {
		b = r.bindings[LatinRegular]
	}
	return *b
}

// Degraded 表示 CJK 角色被绑定到了拉丁兜底字体，汉字将显示为缺字方框。
func (r *Registry) Degraded() bool {
	r.ensure()
	return r.degraded
}

// DegradedError 在降级时返回 FONT_RESOLUTION_DEGRADED，否则返回 nil。
func (r *Registry) DegradedError() error {
	if !r.Degraded() {
		return nil
	}
	b := r.bindings[CJK]
	return docerr.New(docerr.CodeFontDegraded, "CJK 角色已退回到 "+b.ID, nil)
}

// Face 创建指定角色、字号（pt）与颜色的字体面。
func (r *Registry) Face(role Role, sizePt float64, col color.Color) *canvas.FontFace {
	r.ensure()
	b, ok := r.bindings[role]
	if !ok {
		b = r.bindings[LatinRegular]
	}
	return b.family.Face(sizePt, col, canvas.FontRegular, canvas.FontNormal)
}

// RuneWidth 返回单个字符在该角色字体、字号（pt）下的宽度（mm）。
func (r *Registry) RuneWidth(ch rune, role Role, sizePt float64) float64 {
	key := widthKey{role: role, size: sizePt, ch: ch}
	if w, ok := r.widths.Load(key); ok {
		return w.(float64)
	}
	w := r.Face(role, sizePt, canvas.Black).TextWidth(string(ch))
	r.widths.Store(key, w)
	return w
}

// Ascent 返回字体上升部高度（mm），渲染时用于把行顶换算为基线。
func (r *Registry) Ascent(role Role, sizePt float64) float64 {
	return r.Face(role, sizePt, canvas.Black).Metrics().Ascent
}

func (r *Registry) ensure() {
	r.once.Do(r.resolve)
}

func (r *Registry) resolve() {
	r.bindings = make(map[Role]*Binding, len(Roles))

	for _, role := range []Role{LatinRegular, LatinBold} {
		if b := r.probeRole(role); b != nil {
			r.bindings[role] = b
			continue
		}
		r.bindings[role] = r.embeddedBinding(role)
	}

	cjk := r.probeRole(CJK)
	if cjk == nil {
		cjk = r.scanSystem()
	}
	if cjk == nil {
		fallback := *r.bindings[LatinRegular]
		fallback.Role = CJK
		cjk = &fallback
		r.degraded = true
		r.logger.Warn("未找到 CJK 字体，CJK 文本将显示为缺字方框",
			zap.String("fallback", fallback.ID))
	}
	r.bindings[CJK] = cjk

	for _, role := range Roles {
		b := r.bindings[role]
		r.logger.Info("字体角色已绑定",
			zap.String("role", role.String()),
			zap.String("font", b.ID),
			zap.String("source", b.Source))
	}
}

// probeRole 依次尝试 override 与候选路径，返回第一个解析成功的字体。
func (r *Registry) probeRole(role Role) *Binding {
	paths := r.opts.Candidates.forRole(role)
	if p := strings.TrimSpace(r.opts.Overrides[role]); p != "" {
		paths = append([]string{p}, paths...)
	}
	for _, path := range paths {
		b, err := loadFile(role, path)
		if err != nil {
			r.logger.Debug("字体候选不可用",
				zap.String("role", role.String()),
				zap.String("path", path),
				zap.Error(err))
			continue
		}
		return b
	}
	return nil
}

// scanSystem 递归扫描系统字体目录，寻找任意覆盖汉字的字体。
func (r *Registry) scanSystem() *Binding {
	scanned := 0
	for _, dir := range r.opts.SystemDirs {
		var found *Binding
		_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if d.IsDir() || !isFontFile(path) {
				return nil
			}
			scanned++
			if scanned > maxScannedFiles {
				return fs.SkipAll
			}
			b, err := loadFile(CJK, path)
			if err != nil {
				return nil
			}
			found = b
			return fs.SkipAll
		})
		if found != nil {
			return found
		}
		if scanned > maxScannedFiles {
			break
		}
	}
	return nil
}

func (r *Registry) embeddedBinding(role Role) *Binding {
	data, id := embedded(role)
	family := canvas.NewFontFamily(id)
	if err := family.LoadFont(data, 0, canvas.FontRegular); err != nil {
		// 内置字体随二进制发布，加载失败说明构建本身有问题。
		panic(fmt.Sprintf("加载内置字体 %s 失败: %v", id, err))
	}
	return &Binding{Role: role, ID: id, Source: "embedded:" + id, family: family}
}

// loadFile 读取并校验字体文件；CJK 角色要求字体包含汉字字形。
func loadFile(role Role, path string) (*Binding, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	index, name, err := pickFace(data, role == CJK)
	if err != nil {
		return nil, fmt.Errorf("解析字体 %s 失败: %w", path, err)
	}
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	id := role.String() + ":" + name
	family := canvas.NewFontFamily(id)
	if err := family.LoadFont(data, index, canvas.FontRegular); err != nil {
		return nil, fmt.Errorf("注册字体 %s 失败: %w", path, err)
	}
	return &Binding{Role: role, ID: id, Source: path, Index: index, family: family}, nil
}

var errNoCJKGlyphs = errors.New("字体不包含 CJK 字形")

// pickFace 在字体（或字体集合）中选出第一个可用的字体序号与 PostScript 名。
func pickFace(data []byte, needCJK bool) (int, string, error) {
	coll, err := sfnt.ParseCollection(data)
	if err != nil {
		return 0, "", err
	}
	var buf sfnt.Buffer
	for i := 0; i < coll.NumFonts(); i++ {
		f, err := coll.Font(i)
		if err != nil {
			continue
		}
		if needCJK {
			idx, err := f.GlyphIndex(&buf, cjkProbe)
			if err != nil || idx == 0 {
				continue
			}
		}
		name, _ := f.Name(&buf, sfnt.NameIDPostScript)
		return i, name, nil
	}
	if needCJK {
		return 0, "", errNoCJKGlyphs
	}
	return 0, "", errors.New("字体集合为空")
}

func isFontFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ttf", ".otf", ".ttc", ".otc":
		return true
	}
	return false
}
