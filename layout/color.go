package layout

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// Color 采用 0-255 的 RGB 数值。
type Color struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

// 常用颜色
var (
	ColorText   = Color{R: 30, G: 30, B: 30}
	ColorBorder = Color{R: 120, G: 120, B: 120}
	ColorMuted  = Color{R: 160, G: 160, B: 160}
)

// RGBA 转换为标准库颜色。
func (c Color) RGBA() color.RGBA {
	return color.RGBA{R: uint8(c.R), G: uint8(c.G), B: uint8(c.B), A: 0xff}
}

// ParseColor 解析 #rgb、#rrggbb 或 #rrggbbaa（忽略透明度）。
func ParseColor(value string) (Color, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(value), "#")
	switch len(hex) {
	case 3:
		hex = strings.Repeat(hex[0:1], 2) + strings.Repeat(hex[1:2], 2) + strings.Repeat(hex[2:3], 2)
	case 6, 8:
	default:
		return Color{}, fmt.Errorf("颜色值 %s 无法解析", value)
	}
	var parts [3]int
	for i := range parts {
		v, err := strconv.ParseUint(hex[i*2:i*2+2], 16, 8)
		if err != nil {
			return Color{}, fmt.Errorf("颜色值 %s 无法解析: %w", value, err)
		}
		parts[i] = int(v)
	}
	return Color{R: parts[0], G: parts[1], B: parts[2]}, nil
}
