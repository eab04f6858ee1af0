package fonts

import (
	"os"
	"path/filepath"
)

// Candidates 为每个角色列出按优先级排列的字体文件路径。
type Candidates struct {
	LatinRegular []string
	LatinBold    []string
	CJK          []string
}

// forRole 返回角色对应的候选列表。
func (c Candidates) forRole(role Role) []string {
	switch role {
	case LatinRegular:
		return c.LatinRegular
	case LatinBold:
		return c.LatinBold
	case CJK:
		return c.CJK
	}
	return nil
}

// DefaultCandidates 先查项目内 fonts/ 目录，再查常见的系统路径。
func DefaultCandidates() Candidates {
	return Candidates{
		LatinRegular: []string{
			"fonts/DejaVuSans.ttf",
			"assets/fonts/DejaVuSans.ttf",
			"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
			"/usr/share/fonts/dejavu/DejaVuSans.ttf",
			"/usr/share/fonts/TTF/DejaVuSans.ttf",
			"/Library/Fonts/Arial.ttf",
			"/System/Library/Fonts/Supplemental/Arial.ttf",
			`C:\Windows\Fonts\arial.ttf`,
		},
		LatinBold: []string{
			"fonts/DejaVuSans-Bold.ttf",
			"assets/fonts/DejaVuSans-Bold.ttf",
			"/usr/share/fonts/truetype/dejavu/DejaVuSans-Bold.ttf",
			"/usr/share/fonts/dejavu/DejaVuSans-Bold.ttf",
			"/usr/share/fonts/TTF/DejaVuSans-Bold.ttf",
			"/Library/Fonts/Arial Bold.ttf",
			"/System/Library/Fonts/Supplemental/Arial Bold.ttf",
			`C:\Windows\Fonts\arialbd.ttf`,
		},
		CJK: []string{
			"fonts/NotoSansSC-Regular.otf",
			"fonts/NotoSansSC-Regular.ttf",
			"assets/fonts/NotoSansSC-Regular.otf",
			"fonts/wqy-microhei.ttc",
			"/usr/share/fonts/opentype/noto/NotoSansCJK-Regular.ttc",
			"/usr/share/fonts/noto-cjk/NotoSansCJK-Regular.ttc",
			"/usr/share/fonts/google-noto-cjk/NotoSansCJK-Regular.ttc",
			"/usr/share/fonts/truetype/wqy/wqy-microhei.ttc",
			"/usr/share/fonts/truetype/wqy/wqy-zenhei.ttc",
			"/usr/share/fonts/wqy-zenhei/wqy-zenhei.ttc",
			"/System/Library/Fonts/PingFang.ttc",
			"/System/Library/Fonts/STHeiti Light.ttc",
			"/Library/Fonts/Arial Unicode.ttf",
			`C:\Windows\Fonts\msyh.ttc`,
			`C:\Windows\Fonts\simhei.ttf`,
			`C:\Windows\Fonts\simsun.ttc`,
		},
	}
}

// DefaultSystemDirs 是 CJK 最后一轮目录扫描的根目录。
func DefaultSystemDirs() []string {
	dirs := []string{
		"/usr/share/fonts",
		"/usr/local/share/fonts",
		"/Library/Fonts",
		"/System/Library/Fonts",
		`C:\Windows\Fonts`,
	}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		dirs = append(dirs, filepath.Join(home, ".fonts"), filepath.Join(home, ".local", "share", "fonts"))
	}
	return dirs
}
