package fonts

import (
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

// 编译进二进制的兜底字体，保证拉丁角色始终可解析。
const (
	embeddedRegularID = "GoRegular"
	embeddedBoldID    = "GoBold"
)

// embedded 返回角色对应的内置字体数据与标识。CJK 没有内置字体，退回常规体。
func embedded(role Role) ([]byte, string) {
	if role == LatinBold {
		return gobold.TTF, embeddedBoldID
	}
	return goregular.TTF, embeddedRegularID
}
