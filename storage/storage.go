// Package storage 把订单产物落盘：{base}/{order_id}/ 下的 Commande_<id>.pdf、
// order.json 与 images/ 目录。所有写入都先写临时文件再 rename，
// 读者不会看到写了一半的文件。
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/ByLCY/orderpdf/docerr"
	"github.com/ByLCY/orderpdf/order"
	"github.com/ByLCY/orderpdf/thumbnail"
)

const (
	orderFile = "order.json"
	imagesDir = "images"
)

// Options configures file system storage
type Options struct {
	// BaseDir is the root directory for order artifacts
	// Default: orders
	BaseDir string
	Logger  *zap.Logger
}

// FileSystem stores order artifacts on the local file system
type FileSystem struct {
	base   string
	logger *zap.Logger
}

// NewFileSystem creates the base directory if needed.
func NewFileSystem(opts Options) (*FileSystem, error) {
	base := opts.BaseDir
	if base == "" {
		base = "orders"
	}
	// 保存绝对路径，写进 order.json 的图片路径才与工作目录无关
	base, err := filepath.Abs(base)
	if err != nil {
		return nil, docerr.New(docerr.CodeIO, "failed to resolve base path", err)
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, docerr.New(docerr.CodeIO, fmt.Sprintf("创建存储目录 %s 失败", base), err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileSystem{base: base, logger: logger}, nil
}

// BaseDir 返回存储根目录。
func (s *FileSystem) BaseDir() string {
	return s.base
}

// PDFName 返回订单 PDF 的文件名。
func PDFName(orderID string) string {
	return "Commande_" + orderID + ".pdf"
}

// OrderDir 返回订单目录，拒绝会逃出根目录的 ID。
func (s *FileSystem) OrderDir(orderID string) (string, error) {
	if strings.TrimSpace(orderID) == "" {
		return "", docerr.Invalid("订单 ID 不能为空")
	}
	if filepath.IsAbs(orderID) || containsDotDot(orderID) || strings.ContainsAny(orderID, `/\`) {
		s.logger.Warn("blocked potentially malicious order id", zap.String("orderID", orderID))
		return "", docerr.Invalid(fmt.Sprintf("非法订单 ID %q", orderID))
	}
	dir := filepath.Join(s.base, orderID)
	if err := s.within(dir); err != nil {
		return "", err
	}
	return dir, nil
}

// SaveOrder 写入 order.json，返回文件路径。
func (s *FileSystem) SaveOrder(ctx context.Context, doc *order.Document) (string, error) {
	if err := doc.Validate(); err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := doc.Save(&buf); err != nil {
		return "", docerr.New(docerr.CodeIO, "序列化订单失败", err)
	}
	return s.put(ctx, doc.ID, orderFile, buf.Bytes())
}

// LoadOrder 读取已保存的订单，相对图片路径按订单目录解析。
func (s *FileSystem) LoadOrder(ctx context.Context, orderID string) (*order.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, docerr.New(docerr.CodeIO, "operation cancelled", err)
	}
	dir, err := s.OrderDir(orderID)
	if err != nil {
		return nil, err
	}
	return order.LoadFile(filepath.Join(dir, orderFile))
}

// SavePDF 写入 Commande_<id>.pdf。
func (s *FileSystem) SavePDF(ctx context.Context, orderID string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", docerr.Invalid("PDF 内容为空")
	}
	return s.put(ctx, orderID, PDFName(orderID), data)
}

// PDFWriter 返回一个写入 PDF 的 io.WriteCloser。Close 成功后文件才出现在最终位置。
func (s *FileSystem) PDFWriter(ctx context.Context, orderID string) (io.WriteCloser, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", docerr.New(docerr.CodeIO, "operation cancelled", err)
	}
	dir, err := s.OrderDir(orderID)
	if err != nil {
		return nil, "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, "", docerr.New(docerr.CodeIO, "创建订单目录失败", err)
	}
	target := filepath.Join(dir, PDFName(orderID))
	f, err := create(target, s.logger)
	if err != nil {
		return nil, "", err
	}
	return f, target, nil
}

// Create 在 target 同目录下创建临时文件，Close 成功后 rename 到 target。
// 返回的写入器实现 Aborter；Close 之前 target 保持原样。
func Create(target string) (io.WriteCloser, error) {
	return create(target, zap.NewNop())
}

func create(target string, logger *zap.Logger) (*atomicFile, error) {
	tmp, err := os.CreateTemp(filepath.Dir(target), ".tmp-*")
	if err != nil {
		return nil, docerr.New(docerr.CodeIO, "创建临时文件失败", err)
	}
	return &atomicFile{File: tmp, target: target, logger: logger}, nil
}

// SaveImage 写入 images/<name>。
func (s *FileSystem) SaveImage(ctx context.Context, orderID, name string, data []byte) (string, error) {
	if name == "" || name != filepath.Base(name) || containsDotDot(name) {
		return "", docerr.Invalid(fmt.Sprintf("非法图片文件名 %q", name))
	}
	return s.put(ctx, orderID, filepath.Join(imagesDir, name), data)
}

// ImportImages 把订单各行引用的图片归一化为缩略图并存入 images/，
// 返回指向新文件的订单副本。读不到或解码失败的图片清空路径，渲染时画占位框。
func (s *FileSystem) ImportImages(ctx context.Context, doc *order.Document, opts thumbnail.Options, workers int) (*order.Document, error) {
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	out := *doc
	out.Items = slices.Clone(doc.Items)

	var inputs []thumbnail.Input
	var index []int
	for i, it := range out.Items {
		if it.ImagePath == "" {
			continue
		}
		data, err := os.ReadFile(it.ImagePath)
		if err != nil {
			s.logger.Warn("商品图片读取失败，使用占位图",
				zap.Int("item", i), zap.String("path", it.ImagePath), zap.Error(err))
			out.Items[i].ImagePath = ""
			continue
		}
		inputs = append(inputs, thumbnail.Input{Name: fmt.Sprintf("item_%03d%s", i+1, opts.Extension()), Data: data})
		index = append(index, i)
	}

	results, err := thumbnail.NormalizeAll(ctx, inputs, opts, workers)
	if err != nil {
		return nil, err
	}
	for k, res := range results {
		i := index[k]
		if res.Err != nil {
			s.logger.Warn("商品图片归一化失败，使用占位图",
				zap.Int("item", i), zap.String("path", out.Items[i].ImagePath), zap.Error(res.Err))
			out.Items[i].ImagePath = ""
			continue
		}
		path, err := s.SaveImage(ctx, out.ID, res.Name, res.Data)
		if err != nil {
			return nil, err
		}
		out.Items[i].ImagePath = path
	}
	return &out, nil
}

// Delete 删除整个订单目录，不存在时不报错。
func (s *FileSystem) Delete(ctx context.Context, orderID string) error {
	if err := ctx.Err(); err != nil {
		return docerr.New(docerr.CodeIO, "operation cancelled", err)
	}
	dir, err := s.OrderDir(orderID)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(dir); err != nil {
		return docerr.New(docerr.CodeIO, "删除订单目录失败", err)
	}
	s.logger.Info("order deleted", zap.String("orderID", orderID))
	return nil
}

func (s *FileSystem) put(ctx context.Context, orderID, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", docerr.New(docerr.CodeIO, "operation cancelled", err)
	}
	dir, err := s.OrderDir(orderID)
	if err != nil {
		return "", err
	}
	target := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", docerr.New(docerr.CodeIO, "创建订单目录失败", err)
	}
	if err := writeAtomic(target, data); err != nil {
		return "", err
	}
	s.logger.Info("artifact stored",
		zap.String("path", target),
		zap.Int("size", len(data)))
	return target, nil
}

// within 确认解析后的路径仍在根目录之下。
func (s *FileSystem) within(path string) error {
	absBase, err := filepath.Abs(s.base)
	if err != nil {
		return docerr.New(docerr.CodeIO, "failed to resolve base path", err)
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return docerr.New(docerr.CodeIO, "failed to resolve file path", err)
	}
	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) {
		s.logger.Warn("path escape attempt blocked",
			zap.String("absPath", absPath),
			zap.String("absBase", absBase))
		return docerr.Invalid(fmt.Sprintf("路径 %q 不在存储目录内", path))
	}
	return nil
}

func writeAtomic(target string, data []byte) error {
	f, err := create(target, zap.NewNop())
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.abort()
		return docerr.New(docerr.CodeIO, fmt.Sprintf("写入 %s 失败", target), err)
	}
	return f.Close()
}

// atomicFile 在 Close 时 fsync 并 rename 到目标路径。
type atomicFile struct {
	*os.File
	target string
	logger *zap.Logger
	closed bool
}

func (f *atomicFile) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true
	if err := f.Sync(); err != nil {
		f.File.Close()
		os.Remove(f.Name())
		return docerr.New(docerr.CodeIO, fmt.Sprintf("同步 %s 失败", f.target), err)
	}
	if err := f.File.Close(); err != nil {
		os.Remove(f.Name())
		return docerr.New(docerr.CodeIO, fmt.Sprintf("关闭 %s 失败", f.target), err)
	}
	if err := os.Rename(f.Name(), f.target); err != nil {
		os.Remove(f.Name())
		return docerr.New(docerr.CodeIO, fmt.Sprintf("重命名到 %s 失败", f.target), err)
	}
	f.logger.Info("artifact stored", zap.String("path", f.target))
	return nil
}

// Abort 丢弃未完成的写入。
func (f *atomicFile) Abort() {
	f.abort()
}

func (f *atomicFile) abort() {
	if f.closed {
		return
	}
	f.closed = true
	f.File.Close()
	os.Remove(f.Name())
}

// Aborter 由 PDFWriter 与 Create 返回的写入器实现，调用方在生成失败时使用。
type Aborter interface {
	Abort()
}

// containsDotDot checks if a path contains ".." components
func containsDotDot(path string) bool {
	parts := strings.FieldsFunc(path, func(r rune) bool {
		return r == '/' || r == '\\'
	})
	return slices.Contains(parts, "..")
}
