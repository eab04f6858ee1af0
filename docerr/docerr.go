// Package docerr 定义渲染流水线的分类错误，调用方通过 errors.Is 按错误码判断。
package docerr

import "errors"

// Code 标识一类失败。
type Code string

// 错误码
const (
	CodeDecode           Code = "DECODE_FAILED"
	CodeFontDegraded     Code = "FONT_RESOLUTION_DEGRADED"
	CodeInvalidParameter Code = "INVALID_PARAMETER"
	CodeIO               Code = "IO_FAILED"
)

// 用于 errors.Is 比较的哨兵值，只比较 Code。
var (
	ErrDecode           = &Error{Code: CodeDecode, Message: "图片无法解码"}
	ErrFontDegraded     = &Error{Code: CodeFontDegraded, Message: "未找到可用的 CJK 字体"}
	ErrInvalidParameter = &Error{Code: CodeInvalidParameter, Message: "参数无效"}
	ErrIO               = &Error{Code: CodeIO, Message: "写出失败"}
)

// Error 携带错误码、描述与底层原因。
type Error struct {
	Code    Code
	Message string
	Cause   error
}

// New 创建一个分类错误。
func New(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is 让 errors.Is(err, docerr.ErrDecode) 按错误码匹配。
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Invalid 是 InvalidParameter 的快捷构造。
func Invalid(message string) *Error {
	return New(CodeInvalidParameter, message, nil)
}

// CodeOf 返回错误链中第一个分类错误的错误码，没有时返回空串。
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
