package layout

import (
	"fmt"
	"strings"
)

// Labels 是页面上出现的固定文案。
type Labels struct {
	Title        string    `json:"title" mapstructure:"title"`
	Columns      [4]string `json:"columns" mapstructure:"columns"` // 缩略图/商品/数量/备注
	CaseSingular string    `json:"caseSingular" mapstructure:"case_singular"`
	CasePlural   string    `json:"casePlural" mapstructure:"case_plural"`
	UnitSingular string    `json:"unitSingular" mapstructure:"unit_singular"`
	UnitPlural   string    `json:"unitPlural" mapstructure:"unit_plural"`
	TotalFormat  string    `json:"totalFormat" mapstructure:"total_format"` // %d 为合计，%s 为单位
	Meta         []string  `json:"meta" mapstructure:"meta"`                // 页眉元信息模板，见 binding
}

// EnglishLabels 为默认文案。
func EnglishLabels() Labels {
	return Labels{
		Title:        "Purchase Order",
		Columns:      [4]string{"Preview", "Product", "Qty", "Remark"},
		CaseSingular: "case",
		CasePlural:   "cases",
		UnitSingular: "unit",
		UnitPlural:   "units",
		TotalFormat:  "Total: %d %s",
		Meta: []string{
			"Order ID: ${order_id}    Client: ${customer_name}    Tel: ${phone}    Email: ${email}",
			"Created: ${created_at}",
		},
	}
}

// FrenchLabels 是法语门店使用的文案。
func FrenchLabels() Labels {
	return Labels{
		Title:        "Bon de commande",
		Columns:      [4]string{"Aperçu", "Produit", "Qté", "Remarque"},
		CaseSingular: "caisse",
		CasePlural:   "caisses",
		UnitSingular: "unité",
		UnitPlural:   "unités",
		TotalFormat:  "Total: %d %s",
		Meta: []string{
			"Order ID: ${order_id}    Client: ${customer_name}    Tél: ${phone}    Email: ${email}",
			"Créé le: ${created_at}",
		},
	}
}

// LabelsFor 按语言代码返回文案，未知代码回退到英文。
func LabelsFor(lang string) (Labels, bool) {
	switch strings.ToLower(strings.TrimSpace(lang)) {
	case "", "en":
		return EnglishLabels(), true
	case "fr":
		return FrenchLabels(), true
	default:
		return EnglishLabels(), false
	}
}

// Pluralize 按数量选择单复数，1 为单数。
func Pluralize(n int, singular, plural string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, singular)
	}
	return fmt.Sprintf("%d %s", n, plural)
}

// Total 返回合计行文案，单位按合计数选择单复数。
func (l Labels) Total(total int) string {
	unit := l.UnitPlural
	if total == 1 {
		unit = l.UnitSingular
	}
	return fmt.Sprintf(l.TotalFormat, total, unit)
}
