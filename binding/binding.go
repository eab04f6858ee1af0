// Package binding 负责页眉模板中的 ${field} 占位符替换。
package binding

import (
	"fmt"
	"regexp"
	"strings"
)

var exprPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Interpolate 将文本中的 ${key} 替换为 fields 中的值。
// 键不存在时保留原占位符。
func Interpolate(text string, fields map[string]any) string {
	out, _ := expand(text, fields)
	return out
}

// Line 替换模板中的占位符；若模板含有占位符且全部解析为空值，
// 第二个返回值为 false，调用方应省略整行。
func Line(template string, fields map[string]any) (string, bool) {
	out, filled := expand(template, fields)
	if !exprPattern.MatchString(template) {
		return out, strings.TrimSpace(out) != ""
	}
	return out, filled > 0
}

// Placeholders 返回模板中引用的字段名，按出现顺序。
func Placeholders(template string) []string {
	matches := exprPattern.FindAllStringSubmatch(template, -1)
	paths := make([]string, 0, len(matches))
	for _, m := range matches {
		paths = append(paths, strings.TrimSpace(m[1]))
	}
	return paths
}

// Unknown 返回模板中 fields 没有提供的字段名。
func Unknown(template string, fields map[string]any) []string {
	var missing []string
	for _, name := range Placeholders(template) {
		if _, ok := fields[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

// expand 返回替换结果以及解析为非空值的占位符个数。
func expand(text string, fields map[string]any) (string, int) {
	filled := 0
	out := exprPattern.ReplaceAllStringFunc(text, func(match string) string {
		groups := exprPattern.FindStringSubmatch(match)
		if len(groups) < 2 || fields == nil {
			return match
		}
		val, ok := fields[strings.TrimSpace(groups[1])]
		if !ok {
			return match
		}
		s := format(val)
		if s != "" {
			filled++
		}
		return s
	})
	return out, filled
}

func format(val any) string {
	switch v := val.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}
