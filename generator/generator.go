// Package generator 串联字体注册表、表格布局与 PDF 渲染，是 CLI 与调用方的统一入口。
package generator

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/ByLCY/orderpdf/docerr"
	"github.com/ByLCY/orderpdf/fonts"
	"github.com/ByLCY/orderpdf/layout"
	"github.com/ByLCY/orderpdf/order"
	"github.com/ByLCY/orderpdf/renderer"
	canvasrenderer "github.com/ByLCY/orderpdf/renderer/canvas"
	"github.com/ByLCY/orderpdf/storage"
)

// Options configures a Generator.
type Options struct {
	Table  layout.TableOptions
	Fonts  fonts.Options
	Logger *zap.Logger
	// Renderer 为空时使用与布局共享字体注册表的 canvas 渲染器
	Renderer renderer.Renderer
}

// Generator 持有一个字体注册表，多次生成复用同一套字体绑定与宽度缓存。
type Generator struct {
	fonts    *fonts.Registry
	builder  *layout.TableBuilder
	renderer renderer.Renderer
	logger   *zap.Logger
}

// New 校验表格参数并装配各组件。字体探测延迟到首次排版。
func New(opts Options) (*Generator, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	fo := opts.Fonts
	if fo.Logger == nil {
		fo.Logger = logger
	}
	reg := fonts.NewRegistry(fo)
	r := canvasrenderer.NewRenderer(canvasrenderer.Options{Fonts: reg, Logger: logger})
	builder, err := layout.NewTableBuilder(r.Engine(), opts.Table, logger)
	if err != nil {
		return nil, err
	}
	g := &Generator{fonts: reg, builder: builder, renderer: r, logger: logger}
	if opts.Renderer != nil {
		g.renderer = opts.Renderer
	}
	return g, nil
}

// Fonts 返回生成器使用的字体注册表。
func (g *Generator) Fonts() *fonts.Registry {
	return g.fonts
}

// Layout 规范化订单文本后计算布局。
func (g *Generator) Layout(doc *order.Document) (*layout.Result, error) {
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	if err := g.fonts.DegradedError(); err != nil {
		g.logger.Warn("CJK 字体缺失，中文将显示为缺字方框", zap.Error(err))
	}
	return g.builder.Build(doc.Normalize())
}

// Render 生成完整的 PDF 字节。
func (g *Generator) Render(doc *order.Document) ([]byte, error) {
	res, err := g.Layout(doc)
	if err != nil {
		return nil, err
	}
	data, err := g.renderer.Render(res)
	if err != nil {
		return nil, err
	}
	g.logger.Info("PDF rendered",
		zap.String("orderID", doc.ID),
		zap.Int("pages", len(res.Pages)),
		zap.Int("rows", res.RowCount()),
		zap.Int("size", len(data)))
	return data, nil
}

// Write 把 PDF 写到 w。写入失败返回 IO_FAILED；不会写出不完整的文档后报告成功。
func (g *Generator) Write(doc *order.Document, w io.Writer) error {
	data, err := g.Render(doc)
	if err != nil {
		return err
	}
	n, err := w.Write(data)
	if err != nil {
		return docerr.New(docerr.CodeIO, "写入 PDF 失败", err)
	}
	if n != len(data) {
		return docerr.New(docerr.CodeIO, fmt.Sprintf("写入 PDF 不完整：%d/%d 字节", n, len(data)), io.ErrShortWrite)
	}
	return nil
}

// WriteFile 把 PDF 原子地写到 path：先写同目录的临时文件再 rename，
// 失败时 path 上已有的文件保持不变。
func (g *Generator) WriteFile(doc *order.Document, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return docerr.New(docerr.CodeIO, "创建输出目录失败", err)
	}
	w, err := storage.Create(path)
	if err != nil {
		return err
	}
	return g.finish(doc, w)
}

// finish 写入 w 并提交；任何失败都丢弃临时文件。
func (g *Generator) finish(doc *order.Document, w io.WriteCloser) error {
	if err := g.Write(doc, w); err != nil {
		if a, ok := w.(storage.Aborter); ok {
			a.Abort()
		}
		return err
	}
	return w.Close()
}

// Store 生成 PDF 并与 order.json 一起原子地写入存储目录，返回 PDF 路径。
func (g *Generator) Store(ctx context.Context, fs *storage.FileSystem, doc *order.Document) (string, error) {
	w, path, err := fs.PDFWriter(ctx, doc.ID)
	if err != nil {
		return "", err
	}
	if err := g.finish(doc, w); err != nil {
		return "", err
	}
	if _, err := fs.SaveOrder(ctx, doc); err != nil {
		return "", err
	}
	return path, nil
}
