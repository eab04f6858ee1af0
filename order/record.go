package order

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ByLCY/orderpdf/docerr"
)

// record 是 order.json 的磁盘格式。
type record struct {
	OrderID      string       `json:"order_id"`
	CustomerName string       `json:"customer_name"`
	Phone        string       `json:"phone"`
	Email        string       `json:"email"`
	CreatedAt    string       `json:"created_at"`
	Status       string       `json:"status,omitempty"`
	Items        []itemRecord `json:"items"`
}

type itemRecord struct {
	Name         string  `json:"name"`
	QtyUnits     int     `json:"qty_units"`
	QtyCases     int     `json:"qty_cases"`
	UnitsPerCase int     `json:"units_per_case"`
	Remark       string  `json:"remark"`
	ImagePath    *string `json:"image_path"`
}

// Load 从 JSON 读取订单；相对图片路径以 baseDir 为根解析。
func Load(r io.Reader, baseDir string) (*Document, error) {
	var rec record
	if err := json.NewDecoder(r).Decode(&rec); err != nil {
		return nil, docerr.New(docerr.CodeInvalidParameter, "解析订单 JSON 失败", err)
	}
	created, err := parseTime(rec.CreatedAt)
	if err != nil {
		return nil, docerr.New(docerr.CodeInvalidParameter, "created_at 格式无效", err)
	}
	doc := &Document{
		ID:           rec.OrderID,
		CustomerName: rec.CustomerName,
		Phone:        rec.Phone,
		Email:        rec.Email,
		CreatedAt:    created,
		Status:       rec.Status,
		Items:        make([]LineItem, 0, len(rec.Items)),
	}
	for _, it := range rec.Items {
		path := ""
		if it.ImagePath != nil {
			path = strings.TrimSpace(*it.ImagePath)
		}
		if path != "" && !filepath.IsAbs(path) && baseDir != "" {
			path = filepath.Join(baseDir, path)
		}
		doc.Items = append(doc.Items, LineItem{
			Name:         it.Name,
			QtyUnits:     it.QtyUnits,
			QtyCases:     it.QtyCases,
			UnitsPerCase: it.UnitsPerCase,
			Remark:       it.Remark,
			ImagePath:    path,
		})
	}
	return doc, nil
}

// LoadFile 读取 order.json，相对图片路径以文件所在目录为根。
func LoadFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("无法打开订单文件 %s: %w", path, err)
	}
	defer f.Close()
	return Load(f, filepath.Dir(path))
}

// Save 以缩进 JSON 写出订单，非 ASCII 字符原样保留。
func (d *Document) Save(w io.Writer) error {
	rec := record{
		OrderID:      d.ID,
		CustomerName: d.CustomerName,
		Phone:        d.Phone,
		Email:        d.Email,
		Status:       d.Status,
		Items:        make([]itemRecord, 0, len(d.Items)),
	}
	if !d.CreatedAt.IsZero() {
		rec.CreatedAt = d.CreatedAt.Format(TimeLayout)
	}
	for _, it := range d.Items {
		ir := itemRecord{
			Name:         it.Name,
			QtyUnits:     it.QtyUnits,
			QtyCases:     it.QtyCases,
			UnitsPerCase: it.UnitsPerCase,
			Remark:       it.Remark,
		}
		if it.ImagePath != "" {
			p := it.ImagePath
			ir.ImagePath = &p
		}
		rec.Items = append(rec.Items, ir)
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(rec)
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.ParseInLocation(TimeLayout, s, time.Local); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
