package layout

// 长度统一以毫米计算，字号以 pt 表示；这里提供两者之间的换算。

// Unit 记录长度的原始单位。
type Unit int

const (
	UnitNone Unit = iota // 无单位（倍数）
	UnitMM
	UnitCM
	UnitIN
	UnitPT
)

// pt 与 mm 的换算系数。
const (
	PtToMm = 0.352777
	MmToPt = 1.0 / PtToMm
)

func (u Unit) String() string {
	switch u {
	case UnitMM:
		return "mm"
	case UnitCM:
		return "cm"
	case UnitIN:
		return "in"
	case UnitPT:
		return "pt"
	default:
		return ""
	}
}

// ParseUnit 将单位后缀转换为 Unit；空串视为毫米。
func ParseUnit(s string) (Unit, bool) {
	switch s {
	case "mm", "":
		return UnitMM, true
	case "cm":
		return UnitCM, true
	case "in":
		return UnitIN, true
	case "pt":
		return UnitPT, true
	}
	return UnitNone, false
}

// Length 保留数值及其单位。
type Length struct {
	Value float64 `json:"value"`
	Unit  Unit    `json:"unit"`
}

// MM 以毫米构造长度。
func MM(v float64) Length { return Length{Value: v, Unit: UnitMM} }

// PT 以 pt 构造长度。
func PT(v float64) Length { return Length{Value: v, Unit: UnitPT} }

// ToMM 将长度换算为毫米。
func (l Length) ToMM() float64 {
	switch l.Unit {
	case UnitCM:
		return l.Value * 10
	case UnitIN:
		return l.Value * 25.4
	case UnitPT:
		return l.Value * PtToMm
	default:
		return l.Value
	}
}

// ToPT 将长度换算为 pt。
func (l Length) ToPT() float64 {
	if l.Unit == UnitPT {
		return l.Value
	}
	return l.ToMM() * MmToPt
}

// LineHeightKind 区分倍数行高与绝对行高。
type LineHeightKind int

const (
	LineHeightFactor LineHeightKind = iota
	LineHeightAbsolute
)

// LineHeightSpec 保留作者的原始写法：倍数（1.4x）或绝对长度（5.2mm）。
type LineHeightSpec struct {
	Kind   LineHeightKind `json:"kind"`
	Factor float64        `json:"factor,omitempty"`
	Len    Length         `json:"len,omitempty"`
}

// ResolveMM 以给定字号（pt）计算行高（mm）。
func (s LineHeightSpec) ResolveMM(fontSizePt float64) float64 {
	switch s.Kind {
	case LineHeightAbsolute:
		return s.Len.ToMM()
	default:
		factor := s.Factor
		if factor <= 0 {
			factor = 1.4
		}
		return fontSizePt * PtToMm * factor
	}
}
