package layout

import (
	"fmt"
	"strings"

	"github.com/ByLCY/orderpdf/binding"
	"github.com/ByLCY/orderpdf/docerr"
	"github.com/ByLCY/orderpdf/order"
)

// 参考参数（mm，字号为 pt）
const (
	A4Width  = 210.0
	A4Height = 297.0
)

// FontSizes 是各文本区域的字号（pt）。
type FontSizes struct {
	Title    float64 `json:"title" mapstructure:"title"`
	Meta     float64 `json:"meta" mapstructure:"meta"`
	Header   float64 `json:"header" mapstructure:"header"`
	Product  float64 `json:"product" mapstructure:"product"`
	Quantity float64 `json:"quantity" mapstructure:"quantity"`
	Remark   float64 `json:"remark" mapstructure:"remark"`
}

// TableOptions 描述订单表格的全部几何参数。构建后不应修改。
type TableOptions struct {
	PageWidth    float64   `json:"pageWidth"`
	PageHeight   float64   `json:"pageHeight"`
	Margin       Margin    `json:"margin"`
	ThumbColumn  float64   `json:"thumbColumn"`
	QtyColumn    float64   `json:"qtyColumn"`
	RemarkColumn float64   `json:"remarkColumn"`
	MinRowHeight float64   `json:"minRowHeight"`
	ThumbHeight  float64   `json:"thumbHeight"`
	Padding      float64   `json:"padding"`
	LineHeight   float64   `json:"lineHeight"` // 表格单元格内的行距
	Fonts        FontSizes `json:"fonts"`
	Labels       Labels    `json:"labels"`
	Creator      string    `json:"creator"`
}

// DefaultTableOptions 返回 A4 纵向的参考参数。
func DefaultTableOptions() TableOptions {
	return TableOptions{
		PageWidth:    A4Width,
		PageHeight:   A4Height,
		Margin:       Margin{Top: 20, Right: 15, Bottom: 20, Left: 15},
		ThumbColumn:  32,
		QtyColumn:    30,
		RemarkColumn: 45,
		MinRowHeight: 26,
		ThumbHeight:  22,
		Padding:      3,
		LineHeight:   5.2,
		Fonts: FontSizes{
			Title:    16,
			Meta:     10,
			Header:   9,
			Product:  11,
			Quantity: 10,
			Remark:   10,
		},
		Labels:  EnglishLabels(),
		Creator: "orderpdf",
	}
}

// UsableWidth 是左右边距之间的宽度。
func (o TableOptions) UsableWidth() float64 {
	return o.PageWidth - o.Margin.Left - o.Margin.Right
}

// ProductColumn 是商品列宽度：可用宽度减去三个固定列。
func (o TableOptions) ProductColumn() float64 {
	return o.UsableWidth() - o.ThumbColumn - o.QtyColumn - o.RemarkColumn
}

// ThumbWidth 是缩略图区域宽度。
func (o TableOptions) ThumbWidth() float64 {
	return o.ThumbColumn - 2*o.Padding
}

// Columns 返回四列左边界与右边界的 x 坐标。
func (o TableOptions) Columns() [5]float64 {
	x0 := o.Margin.Left
	x1 := x0 + o.ThumbColumn
	x2 := x1 + o.ProductColumn()
	x3 := x2 + o.QtyColumn
	return [5]float64{x0, x1, x2, x3, x3 + o.RemarkColumn}
}

// Validate 检查几何参数，任何无法排版的组合都返回 InvalidParameter。
func (o TableOptions) Validate() error {
	positive := []struct {
		name string
		v    float64
	}{
		{"页面宽度", o.PageWidth},
		{"页面高度", o.PageHeight},
		{"缩略图列宽", o.ThumbColumn},
		{"数量列宽", o.QtyColumn},
		{"备注列宽", o.RemarkColumn},
		{"最小行高", o.MinRowHeight},
		{"缩略图高度", o.ThumbHeight},
		{"行距", o.LineHeight},
		{"标题字号", o.Fonts.Title},
		{"元信息字号", o.Fonts.Meta},
		{"表头字号", o.Fonts.Header},
		{"商品字号", o.Fonts.Product},
		{"数量字号", o.Fonts.Quantity},
		{"备注字号", o.Fonts.Remark},
	}
	for _, p := range positive {
		if p.v <= 0 {
			return docerr.Invalid(fmt.Sprintf("%s必须大于 0，当前为 %g", p.name, p.v))
		}
	}
	m := o.Margin
	if o.Padding < 0 || m.Top < 0 || m.Right < 0 || m.Bottom < 0 || m.Left < 0 {
		return docerr.Invalid("边距与内边距不能为负数")
	}
	if o.PageHeight-m.Top-m.Bottom <= 0 {
		return docerr.Invalid("上下边距超出页面高度")
	}
	if o.ProductColumn() <= 2*o.Padding {
		return docerr.Invalid(fmt.Sprintf("商品列宽度不足：%.2fmm", o.ProductColumn()))
	}
	for _, w := range []float64{o.ThumbColumn, o.QtyColumn, o.RemarkColumn} {
		if w <= 2*o.Padding {
			return docerr.Invalid(fmt.Sprintf("列宽 %.2fmm 不足以容纳内边距", w))
		}
	}
	if o.Labels.TotalFormat == "" {
		return docerr.Invalid("缺少合计文案格式")
	}
	return o.Labels.validateTemplates()
}

// validateTemplates 拒绝引用了订单字段之外占位符的页眉模板。
func (l Labels) validateTemplates() error {
	fields := (&order.Document{}).Fields()
	for _, tpl := range append([]string{l.Title}, l.Meta...) {
		if unknown := binding.Unknown(tpl, fields); len(unknown) > 0 {
			return docerr.Invalid(fmt.Sprintf("页眉模板 %q 引用了未知字段：%s", tpl, strings.Join(unknown, ", ")))
		}
	}
	return nil
}
