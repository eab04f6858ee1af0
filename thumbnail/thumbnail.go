// Package thumbnail 把任意上传的商品图片归一化为固定尺寸、不透明背景的缩略图。
package thumbnail

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/ByLCY/orderpdf/docerr"
)

// Options 控制输出画布与编码。
type Options struct {
	Width      int
	Height     int
	Background color.NRGBA
	Format     imaging.Format
	Quality    int // JPEG 质量 1-100；PNG 忽略
}

// DefaultOptions 返回 800×600、浅灰背景、JPEG 85 的默认参数。
func DefaultOptions() Options {
	return Options{
		Width:      800,
		Height:     600,
		Background: color.NRGBA{R: 245, G: 245, B: 245, A: 255},
		Format:     imaging.JPEG,
		Quality:    85,
	}
}

// Validate 检查尺寸、格式与质量。
func (o Options) Validate() error {
	if o.Width <= 0 || o.Height <= 0 {
		return docerr.Invalid(fmt.Sprintf("缩略图尺寸无效：%dx%d", o.Width, o.Height))
	}
	switch o.Format {
	case imaging.JPEG:
		if o.Quality < 1 || o.Quality > 100 {
			return docerr.Invalid(fmt.Sprintf("JPEG 质量必须在 1-100 之间，当前为 %d", o.Quality))
		}
	case imaging.PNG:
	default:
		return docerr.Invalid(fmt.Sprintf("不支持的输出格式 %s", o.Format))
	}
	return nil
}

// ParseFormat 接受 jpg/jpeg/png。
func ParseFormat(name string) (imaging.Format, error) {
	f, err := imaging.FormatFromExtension(strings.TrimPrefix(strings.TrimSpace(name), "."))
	if err != nil || (f != imaging.JPEG && f != imaging.PNG) {
		return 0, docerr.Invalid(fmt.Sprintf("不支持的输出格式 %q", name))
	}
	return f, nil
}

// Extension 返回输出格式对应的文件扩展名。
func (o Options) Extension() string {
	if o.Format == imaging.PNG {
		return ".png"
	}
	return ".jpg"
}

// Normalize 解码图片，把透明区域合成到背景色上，只缩小不放大地等比缩放，
// 居中贴到 Width×Height 的背景画布上再编码。相同输入得到相同输出。
func Normalize(data []byte, opts Options) ([]byte, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	src, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, docerr.New(docerr.CodeDecode, "无法解码图片", err)
	}
	if b := src.Bounds(); b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, docerr.New(docerr.CodeDecode, "图片尺寸为空", nil)
	}

	flat := flatten(src, opts.Background)
	fitted := imaging.Fit(flat, opts.Width, opts.Height, imaging.Lanczos)
	canvas := imaging.New(opts.Width, opts.Height, opts.Background)
	canvas = imaging.PasteCenter(canvas, fitted)

	var buf bytes.Buffer
	if err := encode(&buf, canvas, opts); err != nil {
		return nil, fmt.Errorf("编码缩略图失败: %w", err)
	}
	return buf.Bytes(), nil
}

// NormalizeFile 读取 src 并把结果写到 dst。
func NormalizeFile(src, dst string, opts Options) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return docerr.New(docerr.CodeDecode, fmt.Sprintf("读取图片 %s 失败", src), err)
	}
	out, err := Normalize(data, opts)
	if err != nil {
		return err
	}
	if err := os.WriteFile(dst, out, 0o644); err != nil {
		return docerr.New(docerr.CodeIO, fmt.Sprintf("写入缩略图 %s 失败", dst), err)
	}
	return nil
}

// flatten 把带透明度的图片合成到背景色上；不透明图片只转换为 NRGBA。
func flatten(src image.Image, bg color.NRGBA) *image.NRGBA {
	if isOpaque(src) {
		return imaging.Clone(src)
	}
	b := src.Bounds()
	out := imaging.New(b.Dx(), b.Dy(), bg)
	draw.Draw(out, out.Bounds(), src, b.Min, draw.Over)
	return out
}

func isOpaque(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return o.Opaque()
	}
	return false
}

func encode(buf *bytes.Buffer, img image.Image, opts Options) error {
	if opts.Format == imaging.PNG {
		return imaging.Encode(buf, img, imaging.PNG, imaging.PNGCompressionLevel(png.DefaultCompression))
	}
	return imaging.Encode(buf, img, imaging.JPEG, imaging.JPEGQuality(opts.Quality))
}
