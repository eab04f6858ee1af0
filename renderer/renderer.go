package renderer

import "github.com/ByLCY/orderpdf/layout"

// Renderer 把分页后的订单表格输出为 PDF 字节。
// 文档在内存中完整生成后才返回，出错时不返回部分内容。
type Renderer interface {
	Render(result *layout.Result) ([]byte, error)
}

// Func 让普通函数满足 Renderer。
type Func func(result *layout.Result) ([]byte, error)

// Render 调用 f。
func (f Func) Render(result *layout.Result) ([]byte, error) {
	return f(result)
}
