package layout

import "unicode/utf8"

// Script 是换行与选字体时使用的文字类别。
type Script int

const (
	ScriptOther Script = iota
	ScriptCJK
)

func (s Script) String() string {
	if s == ScriptCJK {
		return "cjk"
	}
	return "other"
}

// cjkRanges 是固定的码位表，换行结果依赖这些边界，不要按需调整。
var cjkRanges = [...][2]rune{
	{0x2E80, 0x2FDF}, // CJK 部首补充、康熙部首
	{0x3000, 0x303F}, // CJK 符号和标点
	{0x3040, 0x30FF}, // 平假名、片假名
	{0x3100, 0x31BF}, // 注音
	{0x31C0, 0x31EF}, // CJK 笔画
	{0x3200, 0x33FF}, // 带圈字符、兼容字符
	{0x3400, 0x4DBF}, // 扩展 A
	{0x4E00, 0x9FFF}, // 统一表意文字
	{0xF900, 0xFAFF}, // 兼容表意文字
	{0xFE30, 0xFE4F}, // 兼容形式
	{0xFF00, 0xFFEF}, // 半角与全角形式
}

// Classify 判断字符属于 CJK 还是其他文字。
func Classify(r rune) Script {
	if r < cjkRanges[0][0] {
		return ScriptOther
	}
	for _, rg := range cjkRanges {
		if r < rg[0] {
			break
		}
		if r <= rg[1] {
			return ScriptCJK
		}
	}
	return ScriptOther
}

// ContainsCJK 判断文本中是否出现 CJK 字符。
func ContainsCJK(s string) bool {
	for _, r := range s {
		if Classify(r) == ScriptCJK {
			return true
		}
	}
	return false
}

// GlyphRun 是一行内连续的同类文字片段，用同一种字体绘制。
type GlyphRun struct {
	Text   string
	Script Script
}

// Runs 将一行切分为最长的同类文字片段。
func Runs(line string) []GlyphRun {
	if line == "" {
		return nil
	}
	var runs []GlyphRun
	start := 0
	current := ScriptOther
	for i, r := range line {
		s := Classify(r)
		if i == 0 {
			current = s
			continue
		}
		if s != current {
			runs = append(runs, GlyphRun{Text: line[start:i], Script: current})
			start = i
			current = s
		}
	}
	runs = append(runs, GlyphRun{Text: line[start:], Script: current})
	return runs
}

// runeCount 仅用于预分配。
func runeCount(s string) int { return utf8.RuneCountInString(s) }
