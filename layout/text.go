package layout

import (
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/ByLCY/orderpdf/docerr"
	"github.com/ByLCY/orderpdf/fonts"
)

// Measurer 返回单个字符在某个字体角色、字号（pt）下的宽度（mm）。
// fonts.Registry 是生产实现；测试中可以使用固定宽度的桩。
type Measurer interface {
	RuneWidth(ch rune, role fonts.Role, sizePt float64) float64
}

// Weight 选择拉丁文字使用常规体还是粗体；CJK 总是使用 CJK 角色。
type Weight int

const (
	Regular Weight = iota
	Bold
)

// RoleFor 返回某类文字在给定字重下应使用的字体角色。
func RoleFor(s Script, w Weight) fonts.Role {
	if s == ScriptCJK {
		return fonts.CJK
	}
	if w == Bold {
		return fonts.LatinBold
	}
	return fonts.LatinRegular
}

// Engine 按文字类别测量、换行并定位字符。
type Engine struct {
	m Measurer
}

// NewEngine 用给定的度量后端创建排版引擎。
func NewEngine(m Measurer) *Engine {
	return &Engine{m: m}
}

// RuneWidth 用字符所属文字类别的字体测量其宽度（mm）。
func (e *Engine) RuneWidth(r rune, sizePt float64, w Weight) float64 {
	return e.m.RuneWidth(r, RoleFor(Classify(r), w), sizePt)
}

// Measure 返回一行的宽度：逐字符宽度之和。
func (e *Engine) Measure(s string, sizePt float64, w Weight) float64 {
	total := 0.0
	for _, r := range s {
		total += e.RuneWidth(r, sizePt, w)
	}
	return total
}

// Wrap 以常规字重换行，见 WrapWeighted。
func (e *Engine) Wrap(text string, sizePt, maxWidth float64) ([]TextLine, error) {
	return e.WrapWeighted(text, sizePt, maxWidth, Regular)
}

// WrapWeighted 将文本按显式换行拆成段落，每段独立选择换行策略：
// 不含 CJK 的段落按空白分词换行，含 CJK 的段落逐字换行。空段落不产生行。
func (e *Engine) WrapWeighted(text string, sizePt, maxWidth float64, w Weight) ([]TextLine, error) {
	if err := checkPositive("字号", sizePt); err != nil {
		return nil, err
	}
	if err := checkPositive("换行宽度", maxWidth); err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var lines []TextLine
	for _, para := range strings.Split(text, "\n") {
		para = strings.ReplaceAll(para, "\r", "")
		if ContainsCJK(para) {
			lines = append(lines, e.glyphWrap(para, sizePt, maxWidth, w)...)
		} else {
			lines = append(lines, e.wordWrap(para, sizePt, maxWidth, w)...)
		}
	}
	return lines, nil
}

// wordWrap 以空白分词贪心换行，超宽的单词独占一行且不做连字符拆分。
func (e *Engine) wordWrap(para string, sizePt, maxWidth float64, w Weight) []TextLine {
	words := strings.Fields(para)
	if len(words) == 0 {
		return nil
	}
	space := e.RuneWidth(' ', sizePt, w)
	var (
		lines []TextLine
		cur   strings.Builder
		curW  float64
	)
	for _, word := range words {
		ww := e.Measure(word, sizePt, w)
		if cur.Len() == 0 {
			cur.WriteString(word)
			curW = ww
			continue
		}
		if curW+space+ww <= maxWidth {
			cur.WriteByte(' ')
			cur.WriteString(word)
			curW += space + ww
			continue
		}
		lines = append(lines, e.line(cur.String(), sizePt, w))
		cur.Reset()
		cur.WriteString(word)
		curW = ww
	}
	if cur.Len() > 0 {
		lines = append(lines, e.line(cur.String(), sizePt, w))
	}
	return lines
}

// line 以 Measure 记录行宽，保证与渲染时的逐字笔位一致。
func (e *Engine) line(content string, sizePt float64, w Weight) TextLine {
	return TextLine{Content: content, Width: e.Measure(content, sizePt, w)}
}

// glyphWrap 逐字累积；续行去掉行首空白，每行去掉行尾空白。
func (e *Engine) glyphWrap(para string, sizePt, maxWidth float64, w Weight) []TextLine {
	var (
		lines []TextLine
		cur   strings.Builder
		curW  float64
	)
	emit := func() {
		content := strings.TrimRightFunc(cur.String(), unicode.IsSpace)
		if content != "" {
			lines = append(lines, e.line(content, sizePt, w))
		}
		cur.Reset()
		curW = 0
	}
	for _, r := range para {
		if cur.Len() == 0 && unicode.IsSpace(r) {
			continue
		}
		rw := e.RuneWidth(r, sizePt, w)
		if cur.Len() > 0 && curW+rw > maxWidth {
			emit()
			if unicode.IsSpace(r) {
				continue
			}
		}
		cur.WriteRune(r)
		curW += rw
	}
	emit()
	return lines
}

// PlacedGlyph 是一个已确定字体角色与横向位置的字符。
type PlacedGlyph struct {
	Rune  rune
	Role  fonts.Role
	X     float64
	Width float64
}

// Place 从 x 开始逐字符定位一行：每个字符用其文字类别的字体，
// 笔位前进该字符的测量宽度，从而在行内无缝切换字体。
func (e *Engine) Place(line string, x, sizePt float64, w Weight) []PlacedGlyph {
	glyphs := make([]PlacedGlyph, 0, runeCount(line))
	pen := x
	for _, run := range Runs(line) {
		role := RoleFor(run.Script, w)
		for _, r := range run.Text {
			rw := e.m.RuneWidth(r, role, sizePt)
			glyphs = append(glyphs, PlacedGlyph{Rune: r, Role: role, X: pen, Width: rw})
			pen += rw
		}
	}
	return glyphs
}

func checkPositive(name string, v float64) error {
	if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return docerr.Invalid(fmt.Sprintf("%s必须为正数，当前为 %g", name, v))
	}
	return nil
}
