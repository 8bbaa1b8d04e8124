package dvtypes

import (
	"fmt"
	"image"
)

// ImageBGR 是流水线内部使用的三通道图像，通道顺序为 blue-green-red。
// 与标准库 image 的转换只发生在 imgio 的读写边界上。
type ImageBGR struct {
	Width  int
	Height int
	// Pix 按行存储，每像素 3 字节 (B, G, R)
	Pix []uint8
}

// NewImageBGR 分配一张全零图像
func NewImageBGR(width, height int) *ImageBGR {
	return &ImageBGR{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, 3*width*height),
	}
}

func (m *ImageBGR) offset(x, y int) int {
	return 3 * (y*m.Width + x)
}

// At 返回 (b, g, r)
func (m *ImageBGR) At(x, y int) (uint8, uint8, uint8) {
	i := m.offset(x, y)
	return m.Pix[i], m.Pix[i+1], m.Pix[i+2]
}

func (m *ImageBGR) Set(x, y int, b, g, r uint8) {
	i := m.offset(x, y)
	m.Pix[i] = b
	m.Pix[i+1] = g
	m.Pix[i+2] = r
}

// Clone 返回独立副本；各阶段不得修改上一阶段的输出
func (m *ImageBGR) Clone() *ImageBGR {
	out := NewImageBGR(m.Width, m.Height)
	copy(out.Pix, m.Pix)
	return out
}

// MaskThreshold 之上的掩码像素视为置位（前景/成员）
const MaskThreshold = 129

// MaskSet 判断掩码像素是否置位
func MaskSet(mask *image.Gray, x, y int) bool {
	return mask.GrayAt(x, y).Y >= MaskThreshold
}

// MaskArea 统计掩码中的置位像素数
func MaskArea(mask *image.Gray) int {
	b := mask.Bounds()
	area := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if mask.GrayAt(x, y).Y >= MaskThreshold {
				area++
			}
		}
	}
	return area
}

// ColorInfo 表示调色板中的一个颜色
type ColorInfo struct {
	RGB        [3]int  `json:"rgb"`
	Hex        string  `json:"hex"`
	Count      int     `json:"-"`
	Percentage float64 `json:"percentage"`
}

// NewColorInfo 由 RGB 生成 hex 串（#rrggbb）
func NewColorInfo(r, g, b, count int, percentage float64) ColorInfo {
	return ColorInfo{
		RGB:        [3]int{r, g, b},
		Hex:        fmt.Sprintf("#%02x%02x%02x", r, g, b),
		Count:      count,
		Percentage: percentage,
	}
}

// Rect 区域包围盒
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ColorRegion 表示分割出的单色区域；Mask 局限于总前景掩码之内
type ColorRegion struct {
	Info   ColorInfo
	Mask   *image.Gray
	Bounds Rect
	Area   int
}

// Size 宽高二元组
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ProcessingInfo 阶段间传递的处理元数据
type ProcessingInfo struct {
	Style          string
	ProcessingTime float64
}
