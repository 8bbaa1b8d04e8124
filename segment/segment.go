// Package segment 实现阶段 3：按调色板颜色切出独立区域掩码。
package segment

import (
	"image"
	"image/color"
	"sort"

	"drawvec/morph"
	dvtypes "drawvec/type"
)

const (
	// 每通道颜色匹配容差
	colorTolerance = 10

	// 低于此面积的区域按噪声丢弃
	minRegionArea = 100
)

// Segment 为每个调色板颜色生成掩码（与总前景掩码取交），清噪后按面积
// 降序返回。顺序即合成 z 序：最大区域最先画、在最底层。
// 空结果由调用方当作与空调色板有别的终态失败。
func Segment(flattened *dvtypes.ImageBGR, foreground *image.Gray, colors []dvtypes.ColorInfo, preserveStyle bool) []dvtypes.ColorRegion {
	regions := make([]dvtypes.ColorRegion, 0, len(colors))

	for _, info := range colors {
		mask := colorMask(flattened, info)
		mask = morph.Intersect(mask, foreground)

		// 先用很小的核去掉孤立像素，避免吃掉细笔画
		mask = morph.Open(mask, 2, 1)
		mask = morph.Close(mask, 2, 1)

		// 面积门槛、包围盒、排序键都取自风格清理之前的掩码；
		// 风格清理只改最终输出的掩码本身
		area := dvtypes.MaskArea(mask)
		if area <= minRegionArea {
			continue
		}
		bounds := boundingBox(mask)

		regions = append(regions, dvtypes.ColorRegion{
			Info:   info,
			Mask:   cleanBoundaries(mask, preserveStyle),
			Bounds: bounds,
			Area:   area,
		})
	}

	sort.SliceStable(regions, func(i, j int) bool {
		return regions[i].Area > regions[j].Area
	})

	return regions
}

// colorMask 每通道都在容差内才算该颜色的像素
func colorMask(img *dvtypes.ImageBGR, info dvtypes.ColorInfo) *image.Gray {
	tb, tg, tr := info.RGB[2], info.RGB[1], info.RGB[0]
	mask := image.NewGray(image.Rect(0, 0, img.Width, img.Height))
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			b, g, r := img.At(x, y)
			if within(int(b), tb) && within(int(g), tg) && within(int(r), tr) {
				mask.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return mask
}

func within(v, target int) bool {
	d := v - target
	if d < 0 {
		d = -d
	}
	return d <= colorTolerance
}

// cleanBoundaries 风格保留时只做一次小开运算，保住手绘边界的不规则；
// 否则用更大的核多迭代，换一个干净的轮廓
func cleanBoundaries(mask *image.Gray, preserveStyle bool) *image.Gray {
	if preserveStyle {
		return morph.Open(mask, 2, 1)
	}
	mask = morph.Open(mask, 3, 2)
	return morph.Close(mask, 3, 2)
}

// boundingBox 由置位像素计算包围盒，空掩码为零值
func boundingBox(mask *image.Gray) dvtypes.Rect {
	b := mask.Bounds()
	minX, minY := b.Max.X, b.Max.Y
	maxX, maxY := b.Min.X-1, b.Min.Y-1
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if mask.GrayAt(x, y).Y >= dvtypes.MaskThreshold {
				if x < minX {
					minX = x
				}
				if x > maxX {
					maxX = x
				}
				if y < minY {
					minY = y
				}
				if y > maxY {
					maxY = y
				}
			}
		}
	}
	if maxX < minX {
		return dvtypes.Rect{}
	}
	return dvtypes.Rect{X: minX, Y: minY, Width: maxX - minX + 1, Height: maxY - minY + 1}
}
