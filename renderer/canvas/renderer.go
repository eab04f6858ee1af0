package canvasrenderer

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"
	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/ByLCY/orderpdf/docerr"
	"github.com/ByLCY/orderpdf/fonts"
	"github.com/ByLCY/orderpdf/layout"
	"github.com/ByLCY/orderpdf/renderer"
)

const (
	defaultStrokeWidth  = 0.2
	placeholderStroke   = 0.18
	placeholderColorHex = "#b4b4b4"
)

// Renderer draws table layouts via github.com/tdewolff/canvas.
type Renderer struct {
	fonts  *fonts.Registry
	engine *layout.Engine
	logger *zap.Logger
}

var _ renderer.Renderer = (*Renderer)(nil)

// Options configures the canvas renderer.
type Options struct {
	Fonts  *fonts.Registry
	Logger *zap.Logger
}

// NewRenderer creates a renderer that draws glyphs with the fonts bound in the registry.
func NewRenderer(opts Options) *Renderer {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	reg := opts.Fonts
	if reg == nil {
		reg = fonts.NewRegistry(fonts.Options{Logger: logger})
	}
	return &Renderer{
		fonts:  reg,
		engine: layout.NewEngine(reg),
		logger: logger,
	}
}

// Engine 返回与渲染器共用字体注册表的排版引擎，布局阶段应使用它以保证测量一致。
func (r *Renderer) Engine() *layout.Engine {
	return r.engine
}

// Render renders the result into a PDF byte slice.
func (r *Renderer) Render(result *layout.Result) ([]byte, error) {
	if result == nil {
		return nil, docerr.Invalid("渲染结果为空")
	}
	if len(result.Pages) == 0 {
		return nil, docerr.Invalid("缺少可渲染的页面")
	}

	var buf bytes.Buffer
	writer := pdf.New(&buf, result.Pages[0].Width, result.Pages[0].Height, nil)
	r.applyMeta(writer, result.Meta)
	faces := faceCache{reg: r.fonts, faces: map[faceKey]*canvas.FontFace{}}
	for i, page := range result.Pages {
		if i > 0 {
			writer.NewPage(page.Width, page.Height)
		}
		c := canvas.New(page.Width, page.Height)
		ctx := canvas.NewContext(c)
		ctx.SetCoordSystem(canvas.CartesianIV) // 使坐标与布局保持左上角为原点

		r.drawPage(ctx, page, &faces)
		c.RenderTo(writer)
	}

	if err := writer.Close(); err != nil {
		return nil, docerr.New(docerr.CodeIO, "写入 PDF 失败", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) applyMeta(writer *pdf.PDF, meta layout.DocumentMeta) {
	if writer == nil {
		return
	}
	keywords := strings.Join(meta.Keywords, ", ")
	writer.SetInfo(meta.Title, meta.Subject, keywords, meta.Author, meta.Creator)
}

func (r *Renderer) drawPage(ctx *canvas.Context, page layout.Page, faces *faceCache) {
	// 先画线，再画文字
	r.drawLines(ctx, page.Header.Lines)
	for _, tb := range page.Header.Texts {
		r.drawTextBox(ctx, tb, faces)
	}
	for _, row := range page.Rows {
		r.drawRow(ctx, row, faces)
	}
}

func (r *Renderer) drawRow(ctx *canvas.Context, row layout.RowBox, faces *faceCache) {
	ctx.SetFillColor(color.RGBA{0, 0, 0, 0})
	ctx.SetStrokeColor(layout.ColorBorder.RGBA())
	ctx.SetStrokeWidth(defaultStrokeWidth)
	ctx.DrawPath(row.Border.X, row.Border.Y, canvas.Rectangle(row.Border.Width, row.Border.Height))
	r.drawLines(ctx, row.Lines)

	r.drawImage(ctx, row.Item, row.Image)
	for _, tb := range row.Texts {
		r.drawTextBox(ctx, tb, faces)
	}
}

// drawTextBox 逐字绘制：每个字符使用其文字类别对应的字体，
// 笔位来自 Engine.Place，与布局阶段的测量一致。
func (r *Renderer) drawTextBox(ctx *canvas.Context, tb layout.TextBox, faces *faceCache) {
	col := tb.Color.RGBA()
	// 同一行的拉丁与 CJK 字符共用拉丁字体的基线
	ascent := r.fonts.Ascent(layout.RoleFor(layout.ScriptOther, tb.Weight), tb.FontSize)
	cursorY := tb.Y
	for _, line := range tb.Lines {
		baseline := cursorY + ascent
		for _, g := range r.engine.Place(line.Content, tb.X, tb.FontSize, tb.Weight) {
			if g.Rune == ' ' || g.Rune == '\t' {
				continue
			}
			face := faces.face(g.Role, tb.FontSize, col)
			ctx.DrawText(g.X, baseline, canvas.NewTextLine(face, string(g.Rune), canvas.Left))
		}
		cursorY += tb.LineHeight
	}
}

// drawImage 把缩略图等比缩放后居中放入 box；缺失或无法解码时画同尺寸的占位框。
func (r *Renderer) drawImage(ctx *canvas.Context, item int, box layout.ImageBox) {
	img, err := loadImage(box.Path)
	if err != nil {
		if box.Path != "" {
			r.logger.Warn("缩略图不可用，使用占位框",
				zap.Int("item", item),
				zap.String("path", box.Path),
				zap.Error(err),
			)
		}
		r.drawPlaceholder(ctx, box)
		return
	}
	bounds := img.Bounds()
	fit := layout.FitRect(bounds.Dx(), bounds.Dy(), box)
	dpmm := float64(bounds.Dx()) / fit.Width
	if dpmm <= 0 {
		dpmm = 1
	}
	ctx.DrawImage(fit.X, fit.Y, img, canvas.DPMM(dpmm))
}

func (r *Renderer) drawPlaceholder(ctx *canvas.Context, box layout.ImageBox) {
	ctx.SetFillColor(color.RGBA{0, 0, 0, 0})
	ctx.SetStrokeColor(canvas.Hex(placeholderColorHex))
	ctx.SetStrokeWidth(placeholderStroke)
	ctx.DrawPath(box.X, box.Y, canvas.Rectangle(box.Width, box.Height))
}

// drawLines 绘制直线列表（毫米单位）
func (r *Renderer) drawLines(ctx *canvas.Context, lines []layout.Line) {
	for _, ln := range lines {
		w := ln.Width
		if w <= 0 {
			w = defaultStrokeWidth
		}
		ctx.SetStrokeColor(ln.Color.RGBA())
		ctx.SetStrokeWidth(w)
		p := &canvas.Path{}
		p.MoveTo(0, 0)
		p.LineTo(ln.X2-ln.X1, ln.Y2-ln.Y1)
		ctx.DrawPath(ln.X1, ln.Y1, p)
	}
}

func loadImage(path string) (image.Image, error) {
	if strings.TrimSpace(path) == "" {
		return nil, docerr.New(docerr.CodeDecode, "未提供图片", nil)
	}
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, docerr.New(docerr.CodeDecode, fmt.Sprintf("读取图片 %s 失败", path), err)
	}
	if b := img.Bounds(); b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, docerr.New(docerr.CodeDecode, fmt.Sprintf("图片 %s 尺寸无效", path), nil)
	}
	return img, nil
}

type faceKey struct {
	role fonts.Role
	size float64
	col  color.RGBA
}

// faceCache 在一次渲染内复用字体面。
type faceCache struct {
	reg   *fonts.Registry
	faces map[faceKey]*canvas.FontFace
}

func (c *faceCache) face(role fonts.Role, sizePt float64, col color.RGBA) *canvas.FontFace {
	key := faceKey{role: role, size: sizePt, col: col}
	if f, ok := c.faces[key]; ok {
		return f
	}
	f := c.reg.Face(role, sizePt, col)
	c.faces[key] = f
	return f
}
