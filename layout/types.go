package layout

// 该文件定义布局结果，供渲染与调试 JSON 共用。坐标以页面左上角为原点，单位 mm。

// Result 保存布局后的页面与文档元信息。
type Result struct {
	Pages []Page       `json:"pages"`
	Meta  DocumentMeta `json:"meta"`
}

// RowCount 返回所有页面上的行数之和。
func (r *Result) RowCount() int {
	n := 0
	for _, p := range r.Pages {
		n += len(p.Rows)
	}
	return n
}

// Page 记录页面尺寸、边距、重复的页眉以及本页的表格行。
type Page struct {
	Width  float64      `json:"width"`
	Height float64      `json:"height"`
	Margin Margin       `json:"margin"`
	Header HeaderFooter `json:"header"`
	Rows   []RowBox     `json:"rows"`
}

// HeaderFooter 是每页重复绘制的页眉块。
type HeaderFooter struct {
	Height float64   `json:"height"` // 页眉底部到页面顶部的距离
	Texts  []TextBox `json:"texts"`
	Lines  []Line    `json:"lines,omitempty"`
}

// Margin 以毫米为单位。
type Margin struct {
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
}

// RowBox 是一个商品行在页面上的全部元素。
type RowBox struct {
	Item   int       `json:"item"` // 在订单中的序号
	Y      float64   `json:"y"`
	Height float64   `json:"height"`
	Border Rect      `json:"border"`
	Lines  []Line    `json:"lines"` // 列分隔线
	Image  ImageBox  `json:"image"`
	Texts  []TextBox `json:"texts"`
}

// TextBox 是一个已排好行的文本块，行自顶向下按 LineHeight 排列。
type TextBox struct {
	X          float64    `json:"x"`
	Y          float64    `json:"y"`
	Width      float64    `json:"width"`
	FontSize   float64    `json:"fontSize"` // pt
	LineHeight float64    `json:"lineHeight"`
	Weight     Weight     `json:"weight"`
	Color      Color      `json:"color"`
	Lines      []TextLine `json:"lines"`
}

// Height 返回文本块占用的高度。
func (tb TextBox) Height() float64 {
	return float64(len(tb.Lines)) * tb.LineHeight
}

// TextLine 表示排版后的一行文本及其测量宽度。
type TextLine struct {
	Content string  `json:"content"`
	Width   float64 `json:"width"`
}

// ImageBox 是缩略图单元格中的图片区域；图片等比缩放后居中放入其中，
// 图片缺失或无法读取时在同一区域画占位框。
type ImageBox struct {
	Path   string  `json:"path,omitempty"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Rect 是一个矩形（mm）。
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Line 表示一条线段。
type Line struct {
	X1    float64 `json:"x1"`
	Y1    float64 `json:"y1"`
	X2    float64 `json:"x2"`
	Y2    float64 `json:"y2"`
	Color Color   `json:"color"`
	Width float64 `json:"width"` // 线宽（mm），<=0 时由渲染器给默认值
}

// DocumentMeta 保存 PDF 元信息。
type DocumentMeta struct {
	Title    string   `json:"title"`
	Author   string   `json:"author"`
	Subject  string   `json:"subject"`
	Creator  string   `json:"creator"`
	Keywords []string `json:"keywords"`
}
