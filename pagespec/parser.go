// Package pagespec 解析配置中的几何字符串，例如
// "A4 portrait margin 20mm 15mm"、"210mm x 297mm"、"32mm 30mm 45mm"、"1.4x"。
package pagespec

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/ByLCY/orderpdf/docerr"
	"github.com/ByLCY/orderpdf/layout"
)

var (
	specLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Whitespace", Pattern: `[ \t\r\n]+`},
		{Name: "Color", Pattern: `#(?:[0-9A-Fa-f]{8}|[0-9A-Fa-f]{6}|[0-9A-Fa-f]{3})`},
		{Name: "Number", Pattern: `(?:\d+\.\d+|\d+|\.\d+)(?:pt|mm|cm|in|x)?`},
		{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_-]*`},
		{Name: "Symbol", Pattern: `[,×]`},
	})

	options = []participle.Option{
		participle.Lexer(specLexer),
		participle.Elide("Whitespace"),
		participle.CaseInsensitive("Ident"),
	}

	pageParser       = participle.MustBuild[PageExpr](options...)
	lengthListParser = participle.MustBuild[LengthList](options...)
	lineHeightParser = participle.MustBuild[LineHeightExpr](options...)
	colorParser      = participle.MustBuild[ColorExpr](options...)

	numberPattern = regexp.MustCompile(`^(\d+\.\d+|\d+|\.\d+)([a-z]*)$`)
)

// PageExpr 是页面描述的语法树：尺寸、可选方向、可选边距。
type PageExpr struct {
	Pos         lexer.Position `parser:"" json:"-"`
	Size        *PaperExpr     `parser:"@@"`
	Orientation string         `parser:"@( 'portrait' | 'landscape' )?"`
	Margin      []string       `parser:"( 'margin' ( @Number ','? )+ )?"`
}

// PaperExpr 是命名纸张（A4、Letter）或显式尺寸。
type PaperExpr struct {
	Named  *string   `parser:"  @Ident"`
	Custom *SizeExpr `parser:"| @@"`
}

// SizeExpr 描述 "宽 x 高"。
type SizeExpr struct {
	Width  string `parser:"@Number ( 'x' | '×' )"`
	Height string `parser:"@Number"`
}

// LengthList 是空格或逗号分隔的长度序列。
type LengthList struct {
	Values []string `parser:"( @Number ','? )+"`
}

// LineHeightExpr 是倍数（1.4x）或绝对长度（5.2mm）。
type LineHeightExpr struct {
	Value string `parser:"@Number"`
}

// ColorExpr 是 #rgb / #rrggbb / #rrggbbaa。
type ColorExpr struct {
	Value string `parser:"@Color"`
}

// Page 是解析后的页面几何（mm）。
type Page struct {
	Width  float64
	Height float64
	Margin layout.Margin
}

// 常用纸张尺寸（纵向，mm）
var paperSizes = map[string][2]float64{
	"a3":     {297, 420},
	"a4":     {layout.A4Width, layout.A4Height},
	"a5":     {148, 210},
	"letter": {215.9, 279.4},
	"legal":  {215.9, 355.6},
}

// ParsePage 解析页面描述，例如 "A4 portrait margin 20mm 15mm" 或 "210mm x 297mm margin 1in"。
// 边距按 CSS 习惯接受 1 到 4 个值。
func ParsePage(input string) (Page, error) {
	expr, err := pageParser.ParseString("", input)
	if err != nil {
		return Page{}, invalid("页面描述", input, err)
	}

	var page Page
	switch paper := expr.Size; {
	case paper.Named != nil:
		size, ok := paperSizes[strings.ToLower(*paper.Named)]
		if !ok {
			return Page{}, docerr.Invalid(fmt.Sprintf("未知纸张尺寸 %q", *paper.Named))
		}
		page.Width, page.Height = size[0], size[1]
	case paper.Custom != nil:
		if page.Width, err = parseLength(paper.Custom.Width); err != nil {
			return Page{}, err
		}
		if page.Height, err = parseLength(paper.Custom.Height); err != nil {
			return Page{}, err
		}
	}
	if page.Width <= 0 || page.Height <= 0 {
		return Page{}, docerr.Invalid(fmt.Sprintf("页面尺寸必须为正数：%q", input))
	}

	switch strings.ToLower(expr.Orientation) {
	case "landscape":
		if page.Width < page.Height {
			page.Width, page.Height = page.Height, page.Width
		}
	case "portrait":
		if page.Width > page.Height {
			page.Width, page.Height = page.Height, page.Width
		}
	}

	if len(expr.Margin) > 0 {
		values, err := parseLengths(expr.Margin)
		if err != nil {
			return Page{}, err
		}
		if page.Margin, err = expandMargin(values); err != nil {
			return Page{}, err
		}
	}
	return page, nil
}

// ParseLengths 解析长度序列，返回毫米值；无单位的数字按毫米处理。
func ParseLengths(input string) ([]float64, error) {
	expr, err := lengthListParser.ParseString("", input)
	if err != nil {
		return nil, invalid("长度列表", input, err)
	}
	return parseLengths(expr.Values)
}

// ParseLength 解析单个长度（mm）。
func ParseLength(input string) (float64, error) {
	values, err := ParseLengths(input)
	if err != nil {
		return 0, err
	}
	if len(values) != 1 {
		return 0, docerr.Invalid(fmt.Sprintf("期望一个长度，得到 %d 个：%q", len(values), input))
	}
	return values[0], nil
}

// ParseLineHeight 解析行高：带 x 后缀为字号倍数，否则为绝对长度。
func ParseLineHeight(input string) (layout.LineHeightSpec, error) {
	expr, err := lineHeightParser.ParseString("", input)
	if err != nil {
		return layout.LineHeightSpec{}, invalid("行高", input, err)
	}
	value, unit, err := splitNumber(expr.Value)
	if err != nil {
		return layout.LineHeightSpec{}, err
	}
	if value <= 0 {
		return layout.LineHeightSpec{}, docerr.Invalid(fmt.Sprintf("行高必须为正数：%q", input))
	}
	if unit == "x" {
		return layout.LineHeightSpec{Kind: layout.LineHeightFactor, Factor: value}, nil
	}
	u, ok := layout.ParseUnit(unit)
	if !ok {
		return layout.LineHeightSpec{}, docerr.Invalid(fmt.Sprintf("未知单位 %q", unit))
	}
	return layout.LineHeightSpec{Kind: layout.LineHeightAbsolute, Len: layout.Length{Value: value, Unit: u}}, nil
}

// ParseColor 解析十六进制颜色。
func ParseColor(input string) (layout.Color, error) {
	expr, err := colorParser.ParseString("", input)
	if err != nil {
		return layout.Color{}, invalid("颜色", input, err)
	}
	c, err := layout.ParseColor(expr.Value)
	if err != nil {
		return layout.Color{}, docerr.New(docerr.CodeInvalidParameter, err.Error(), err)
	}
	return c, nil
}

func parseLengths(raw []string) ([]float64, error) {
	out := make([]float64, 0, len(raw))
	for _, r := range raw {
		v, err := parseLength(r)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func parseLength(raw string) (float64, error) {
	value, unit, err := splitNumber(raw)
	if err != nil {
		return 0, err
	}
	u, ok := layout.ParseUnit(unit)
	if !ok {
		return 0, docerr.Invalid(fmt.Sprintf("长度 %q 的单位无效", raw))
	}
	return layout.Length{Value: value, Unit: u}.ToMM(), nil
}

func splitNumber(raw string) (float64, string, error) {
	m := numberPattern.FindStringSubmatch(strings.ToLower(raw))
	if m == nil {
		return 0, "", docerr.Invalid(fmt.Sprintf("无法解析数值 %q", raw))
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, "", docerr.New(docerr.CodeInvalidParameter, fmt.Sprintf("无法解析数值 %q", raw), err)
	}
	return v, m[2], nil
}

func expandMargin(v []float64) (layout.Margin, error) {
	switch len(v) {
	case 1:
		return layout.Margin{Top: v[0], Right: v[0], Bottom: v[0], Left: v[0]}, nil
	case 2:
		return layout.Margin{Top: v[0], Right: v[1], Bottom: v[0], Left: v[1]}, nil
	case 3:
		return layout.Margin{Top: v[0], Right: v[1], Bottom: v[2], Left: v[1]}, nil
	case 4:
		return layout.Margin{Top: v[0], Right: v[1], Bottom: v[2], Left: v[3]}, nil
	default:
		return layout.Margin{}, docerr.Invalid(fmt.Sprintf("边距需要 1 到 4 个值，得到 %d 个", len(v)))
	}
}

func invalid(what, input string, err error) error {
	return docerr.New(docerr.CodeInvalidParameter, fmt.Sprintf("%s %q 无法解析", what, input), err)
}
