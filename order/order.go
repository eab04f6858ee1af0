// Package order 定义渲染流水线的输入：一张订单及其商品行。
package order

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"

	"github.com/ByLCY/orderpdf/docerr"
)

// TimeLayout 是订单记录中 created_at 的格式。
const TimeLayout = "2006-01-02 15:04:05"

// Document 是一张已校验的订单。渲染期间不可修改。
type Document struct {
	ID           string
	CustomerName string
	Phone        string
	Email        string
	CreatedAt    time.Time
	Status       string
	Items        []LineItem // 打印顺序即插入顺序
}

// LineItem 是订单中的一个商品行。
type LineItem struct {
	Name         string
	QtyUnits     int
	QtyCases     int
	UnitsPerCase int // 0 表示不适用
	Remark       string
	ImagePath    string // 已归一化的本地图片；为空或不可读时渲染占位框
}

// TotalUnits = 单件数 + 箱数 × 每箱件数。
func (it LineItem) TotalUnits() int {
	return it.QtyUnits + it.QtyCases*it.UnitsPerCase
}

// HasTotal 仅在同时存在箱数与每箱件数时为真，此时合计才有意义。
func (it LineItem) HasTotal() bool {
	return it.QtyCases > 0 && it.UnitsPerCase > 0
}

// Validate 检查订单是否满足渲染前提。
func (d *Document) Validate() error {
	if d == nil {
		return docerr.Invalid("订单为空")
	}
	if strings.TrimSpace(d.ID) == "" {
		return docerr.Invalid("订单号不能为空")
	}
	for i, it := range d.Items {
		if strings.TrimSpace(it.Name) == "" {
			return docerr.Invalid(fmt.Sprintf("第 %d 个商品缺少名称", i+1))
		}
		if it.QtyUnits < 0 || it.QtyCases < 0 || it.UnitsPerCase < 0 {
			return docerr.Invalid(fmt.Sprintf("商品 %q 的数量不能为负数", it.Name))
		}
	}
	return nil
}

// Normalize 返回一份去除首尾空白并统一为 NFC 的副本，
// 分解形式的重音字符会被合成为单个码位，避免逐字绘制时错位。
func (d *Document) Normalize() *Document {
	out := *d
	out.CustomerName = clean(d.CustomerName)
	out.Phone = clean(d.Phone)
	out.Email = clean(d.Email)
	out.Items = make([]LineItem, len(d.Items))
	for i, it := range d.Items {
		it.Name = clean(it.Name)
		it.Remark = clean(it.Remark)
		it.ImagePath = strings.TrimSpace(it.ImagePath)
		out.Items[i] = it
	}
	return &out
}

// TotalUnits 汇总所有商品行的件数。
func (d *Document) TotalUnits() int {
	total := 0
	for _, it := range d.Items {
		total += it.TotalUnits()
	}
	return total
}

// Fields 返回页眉模板可引用的字段。
func (d *Document) Fields() map[string]any {
	created := ""
	if !d.CreatedAt.IsZero() {
		created = d.CreatedAt.Format(TimeLayout)
	}
	return map[string]any{
		"order_id":      d.ID,
		"customer_name": d.CustomerName,
		"phone":         d.Phone,
		"email":         d.Email,
		"created_at":    created,
		"status":        d.Status,
		"item_count":    len(d.Items),
		"total_units":   d.TotalUnits(),
	}
}

var spaceRun = regexp.MustCompile(`\s+`)

// NewID 生成订单号：去掉空白的客户名 + "_" + 时间戳；客户名为空时改用短 uuid。
func NewID(customerName string, now time.Time) string {
	name := spaceRun.ReplaceAllString(norm.NFC.String(customerName), "")
	if name == "" {
		name = strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	}
	return name + "_" + now.Format("20060102150405")
}

func clean(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}
