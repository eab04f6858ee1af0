package layout

import (
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/ByLCY/orderpdf/binding"
	"github.com/ByLCY/orderpdf/order"
)

// 页眉内各元素之间的间距（mm）
const (
	headerRuleGap   = 2.0
	headerColumnGap = 3.0
	ruleWidth       = 0.3
	gridWidth       = 0.2
)

var headerLineHeight = LineHeightSpec{Kind: LineHeightFactor, Factor: 1.4}

// TableBuilder 把一张订单排成若干页的四列表格。
type TableBuilder struct {
	engine *Engine
	opts   TableOptions
	logger *zap.Logger
}

// NewTableBuilder 校验参数并创建构建器。
func NewTableBuilder(engine *Engine, opts TableOptions, logger *zap.Logger) (*TableBuilder, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TableBuilder{engine: engine, opts: opts, logger: logger}, nil
}

// Options 返回构建器使用的参数。
func (b *TableBuilder) Options() TableOptions {
	return b.opts
}

// QuantityLines 生成数量列文案：箱数、件数，以及在箱规已知时的合计。
func QuantityLines(it order.LineItem, labels Labels) []string {
	var lines []string
	if it.QtyCases > 0 {
		lines = append(lines, Pluralize(it.QtyCases, labels.CaseSingular, labels.CasePlural))
	}
	if it.QtyUnits > 0 {
		lines = append(lines, Pluralize(it.QtyUnits, labels.UnitSingular, labels.UnitPlural))
	}
	if it.HasTotal() {
		lines = append(lines, labels.Total(it.TotalUnits()))
	}
	return lines
}

// Build 计算整张订单的布局。页眉只计算一次，在每一页原样复用。
func (b *TableBuilder) Build(doc *order.Document) (*Result, error) {
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	header, err := b.header(doc)
	if err != nil {
		return nil, err
	}

	o := b.opts
	bottom := o.PageHeight - o.Margin.Bottom
	newPage := func() Page {
		return Page{Width: o.PageWidth, Height: o.PageHeight, Margin: o.Margin, Header: header}
	}

	res := &Result{Meta: b.meta(doc)}
	page := newPage()
	cursor := header.Height
	for i, it := range doc.Items {
		row, err := b.row(i, it)
		if err != nil {
			return nil, err
		}
		if cursor+row.Height > bottom && len(page.Rows) > 0 {
			b.logger.Debug("表格分页", zap.Int("page", len(res.Pages)+1), zap.Int("item", i))
			res.Pages = append(res.Pages, page)
			page = newPage()
			cursor = header.Height
		}
		if cursor+row.Height > bottom {
			b.logger.Warn("行高超过整页可用高度，单独成页", zap.Int("item", i), zap.Float64("height", row.Height))
		}
		row.translate(cursor)
		page.Rows = append(page.Rows, row)
		cursor += row.Height
	}
	res.Pages = append(res.Pages, page)
	return res, nil
}

// header 计算标题、元信息行、列标题和分隔线。Height 为表格首行的 y 坐标。
func (b *TableBuilder) header(doc *order.Document) (HeaderFooter, error) {
	o := b.opts
	cols := o.Columns()
	usable := o.UsableWidth()
	fields := doc.Fields()

	var hf HeaderFooter
	y := o.Margin.Top

	title := strings.TrimSpace(binding.Interpolate(o.Labels.Title, fields))
	if title != "" {
		tb, err := b.textBox(title, cols[0], y, usable, o.Fonts.Title, headerLineHeight.ResolveMM(o.Fonts.Title), Bold)
		if err != nil {
			return hf, err
		}
		hf.Texts = append(hf.Texts, tb)
		y += tb.Height()
	}

	for _, tpl := range o.Labels.Meta {
		text, ok := binding.Line(tpl, fields)
		if !ok {
			continue
		}
		tb, err := b.textBox(text, cols[0], y, usable, o.Fonts.Meta, headerLineHeight.ResolveMM(o.Fonts.Meta), Regular)
		if err != nil {
			return hf, err
		}
		hf.Texts = append(hf.Texts, tb)
		y += tb.Height()
	}

	y += headerRuleGap
	hf.Lines = append(hf.Lines, Line{X1: cols[0], Y1: y, X2: cols[4], Y2: y, Color: ColorBorder, Width: ruleWidth})
	y += headerColumnGap

	colHeight := 0.0
	lh := headerLineHeight.ResolveMM(o.Fonts.Header)
	for i, label := range o.Labels.Columns {
		width := cols[i+1] - cols[i] - 2*o.Padding
		tb, err := b.textBox(label, cols[i]+o.Padding, y, width, o.Fonts.Header, lh, Bold)
		if err != nil {
			return hf, err
		}
		hf.Texts = append(hf.Texts, tb)
		colHeight = math.Max(colHeight, tb.Height())
	}
	y += colHeight + headerRuleGap
	hf.Lines = append(hf.Lines, Line{X1: cols[0], Y1: y, X2: cols[4], Y2: y, Color: ColorBorder, Width: ruleWidth})

	hf.Height = y
	return hf, nil
}

// row 以 y=0 为行顶计算一行，Build 再把它平移到游标位置。
func (b *TableBuilder) row(index int, it order.LineItem) (RowBox, error) {
	o := b.opts
	cols := o.Columns()
	pad := o.Padding

	product, err := b.textBox(it.Name, cols[1]+pad, pad, cols[2]-cols[1]-2*pad, o.Fonts.Product, o.LineHeight, Regular)
	if err != nil {
		return RowBox{}, err
	}
	qty := TextBox{X: cols[2] + pad, Y: pad, Width: o.QtyColumn - 2*pad, FontSize: o.Fonts.Quantity, LineHeight: o.LineHeight, Color: ColorText}
	for _, text := range QuantityLines(it, o.Labels) {
		lines, err := b.engine.Wrap(text, o.Fonts.Quantity, qty.Width)
		if err != nil {
			return RowBox{}, err
		}
		qty.Lines = append(qty.Lines, lines...)
	}
	remark, err := b.textBox(it.Remark, cols[3]+pad, pad, o.RemarkColumn-2*pad, o.Fonts.Remark, o.LineHeight, Regular)
	if err != nil {
		return RowBox{}, err
	}

	height := math.Max(o.MinRowHeight, o.ThumbHeight+2*pad)
	for _, tb := range []TextBox{product, qty, remark} {
		height = math.Max(height, tb.Height()+2*pad)
	}

	row := RowBox{
		Item:   index,
		Height: height,
		Border: Rect{X: cols[0], Y: 0, Width: cols[4] - cols[0], Height: height},
		Image: ImageBox{
			Path:   it.ImagePath,
			X:      cols[0] + pad,
			Y:      (height - o.ThumbHeight) / 2,
			Width:  o.ThumbWidth(),
			Height: o.ThumbHeight,
		},
		Texts: []TextBox{product, qty, remark},
	}
	for _, x := range cols[1:4] {
		row.Lines = append(row.Lines, Line{X1: x, Y1: 0, X2: x, Y2: height, Color: ColorBorder, Width: gridWidth})
	}
	return row, nil
}

func (b *TableBuilder) textBox(text string, x, y, width, sizePt, lineHeight float64, w Weight) (TextBox, error) {
	lines, err := b.engine.WrapWeighted(text, sizePt, width, w)
	if err != nil {
		return TextBox{}, err
	}
	return TextBox{
		X:          x,
		Y:          y,
		Width:      width,
		FontSize:   sizePt,
		LineHeight: lineHeight,
		Weight:     w,
		Color:      ColorText,
		Lines:      lines,
	}, nil
}

func (b *TableBuilder) meta(doc *order.Document) DocumentMeta {
	title := strings.TrimSpace(binding.Interpolate(b.opts.Labels.Title, doc.Fields()))
	if title == "" {
		title = doc.ID
	} else {
		title += " " + doc.ID
	}
	return DocumentMeta{
		Title:    title,
		Author:   doc.CustomerName,
		Subject:  doc.ID,
		Creator:  b.opts.Creator,
		Keywords: []string{doc.ID},
	}
}

// translate 将行内所有坐标整体下移 dy。
func (r *RowBox) translate(dy float64) {
	r.Y += dy
	r.Border.Y += dy
	r.Image.Y += dy
	for i := range r.Lines {
		r.Lines[i].Y1 += dy
		r.Lines[i].Y2 += dy
	}
	for i := range r.Texts {
		r.Texts[i].Y += dy
	}
}

// FitRect 计算 srcW×srcH 的图片在 box 内等比缩放并居中后的位置。
func FitRect(srcW, srcH int, box ImageBox) Rect {
	if srcW <= 0 || srcH <= 0 || box.Width <= 0 || box.Height <= 0 {
		return Rect{X: box.X, Y: box.Y}
	}
	scale := math.Min(box.Width/float64(srcW), box.Height/float64(srcH))
	w := float64(srcW) * scale
	h := float64(srcH) * scale
	return Rect{
		X:      box.X + (box.Width-w)/2,
		Y:      box.Y + (box.Height-h)/2,
		Width:  w,
		Height: h,
	}
}
