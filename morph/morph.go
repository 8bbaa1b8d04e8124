// Package morph 提供二值掩码上的形态学运算与集合运算。
package morph

import (
	"image"
	"image/color"

	dvtypes "drawvec/type"
)

// Erode 腐蚀：窗口 (x..x+k-1, y..y+k-1) 内全部置位时输出置位。
// 图像之外按清零处理。
func Erode(mask *image.Gray, kernel int) *image.Gray {
	b := mask.Bounds()
	out := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			all := true
			for dy := 0; dy < kernel && all; dy++ {
				for dx := 0; dx < kernel; dx++ {
					xx, yy := x+dx, y+dy
					if xx >= b.Max.X || yy >= b.Max.Y ||
						mask.GrayAt(xx, yy).Y < dvtypes.MaskThreshold {
						all = false
						break
					}
				}
			}
			if all {
				out.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return out
}

// Dilate 膨胀：窗口 (x-k+1..x, y-k+1..y) 内任一置位时输出置位
func Dilate(mask *image.Gray, kernel int) *image.Gray {
	b := mask.Bounds()
	out := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			any := false
			for dy := 0; dy < kernel && !any; dy++ {
				for dx := 0; dx < kernel; dx++ {
					xx, yy := x-dx, y-dy
					if xx >= b.Min.X && yy >= b.Min.Y &&
						mask.GrayAt(xx, yy).Y >= dvtypes.MaskThreshold {
						any = true
						break
					}
				}
			}
			if any {
				out.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return out
}

// Open 开运算（先腐蚀后膨胀），去孤立噪点
func Open(mask *image.Gray, kernel, iterations int) *image.Gray {
	out := mask
	for i := 0; i < iterations; i++ {
		out = Dilate(Erode(out, kernel), kernel)
	}
	return out
}

// Close 闭运算（先膨胀后腐蚀），填小缺口
func Close(mask *image.Gray, kernel, iterations int) *image.Gray {
	out := mask
	for i := 0; i < iterations; i++ {
		out = Erode(Dilate(out, kernel), kernel)
	}
	return out
}

// Intersect 两掩码按位与
func Intersect(a, b *image.Gray) *image.Gray {
	bounds := a.Bounds()
	out := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if a.GrayAt(x, y).Y >= dvtypes.MaskThreshold &&
				b.GrayAt(x, y).Y >= dvtypes.MaskThreshold {
				out.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return out
}

// Invert 按位取反（255-v），给描边引擎用
func Invert(mask *image.Gray) *image.Gray {
	b := mask.Bounds()
	out := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			out.SetGray(x, y, color.Gray{Y: 255 - mask.GrayAt(x, y).Y})
		}
	}
	return out
}
