// Package palette 实现阶段 2：前景颜色聚类与压平。
package palette

import (
	"image"
	"math"
	"sort"

	dvtypes "drawvec/type"
)

const (
	// 颜色数量的硬边界
	MinColors = 3
	MaxColors = 7

	// 占比低于此值的簇视为噪声不进调色板
	minColorPercentage = 2.0

	backgroundValue = 255
)

// ClampColorCount 把请求的颜色数收到 [3,7]
func ClampColorCount(n int) int {
	if n < MinColors {
		return MinColors
	}
	if n > MaxColors {
		return MaxColors
	}
	return n
}

// Extract 对掩码内像素做 k-means，返回按占比降序的调色板，
// 以及每个前景像素吸附到最近调色板颜色后的压平图。
// 调色板为空表示没有可提取的颜色，由调用方按终态失败处理。
func Extract(img *dvtypes.ImageBGR, mask *image.Gray, requested int) ([]dvtypes.ColorInfo, *dvtypes.ImageBGR) {
	k := ClampColorCount(requested)

	points := make([][3]float64, 0, img.Width*img.Height/4)
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			if dvtypes.MaskSet(mask, x, y) {
				b, g, r := img.At(x, y)
				points = append(points, [3]float64{float64(b), float64(g), float64(r)})
			}
		}
	}

	if len(points) == 0 {
		return nil, img.Clone()
	}
	// 前景像素比要求的颜色还少时收缩 k
	if len(points) < k {
		k = len(points)
	}

	centers, labels := kmeans(points, k)

	counts := make([]int, k)
	for _, l := range labels {
		counts[l]++
	}

	// 聚类抖动可能把同一种颜色拆成几个几乎重合的中心；
	// 通道差都在分割容差内的簇并成一个，避免后面切出互相重叠的区域
	centers, counts = mergeClusters(centers, counts)

	total := len(points)
	colors := make([]dvtypes.ColorInfo, 0, len(centers))
	for c, center := range centers {
		pct := float64(counts[c]) / float64(total) * 100
		if pct < minColorPercentage {
			continue
		}
		// 中心是 BGR，对外暴露 RGB
		colors = append(colors, dvtypes.NewColorInfo(
			int(center[2]+0.5), int(center[1]+0.5), int(center[0]+0.5),
			counts[c], pct,
		))
	}

	// 稳定排序，平手保留抽取顺序
	sort.SliceStable(colors, func(i, j int) bool {
		return colors[i].Percentage > colors[j].Percentage
	})

	return colors, Flatten(img, mask, colors)
}

// 通道差不超过该值的两个中心视为同一种颜色，与 segment 的匹配容差一致
const mergeTolerance = 10

func mergeClusters(centers [][3]float64, counts []int) ([][3]float64, []int) {
	for {
		merged := false
		for i := 0; i < len(centers) && !merged; i++ {
			for j := i + 1; j < len(centers); j++ {
				if !closeEnough(centers[i], centers[j]) {
					continue
				}
				total := counts[i] + counts[j]
				if total > 0 {
					for ch := 0; ch < 3; ch++ {
						centers[i][ch] = (centers[i][ch]*float64(counts[i]) +
							centers[j][ch]*float64(counts[j])) / float64(total)
					}
				}
				counts[i] = total
				centers = append(centers[:j], centers[j+1:]...)
				counts = append(counts[:j], counts[j+1:]...)
				merged = true
				break
			}
		}
		if !merged {
			return centers, counts
		}
	}
}

func closeEnough(a, b [3]float64) bool {
	for ch := 0; ch < 3; ch++ {
		if math.Abs(a[ch]-b[ch]) > mergeTolerance {
			return false
		}
	}
	return true
}

// Flatten 前景像素替换为最近的调色板颜色（精确欧氏距离，平手取前者），
// 背景统一填白
func Flatten(img *dvtypes.ImageBGR, mask *image.Gray, colors []dvtypes.ColorInfo) *dvtypes.ImageBGR {
	if len(colors) == 0 {
		return img.Clone()
	}

	paletteBGR := make([][3]float64, len(colors))
	for i, c := range colors {
		paletteBGR[i] = [3]float64{float64(c.RGB[2]), float64(c.RGB[1]), float64(c.RGB[0])}
	}

	out := dvtypes.NewImageBGR(img.Width, img.Height)
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			if !dvtypes.MaskSet(mask, x, y) {
				out.Set(x, y, backgroundValue, backgroundValue, backgroundValue)
				continue
			}
			b, g, r := img.At(x, y)
			p := [3]float64{float64(b), float64(g), float64(r)}
			best := 0
			bestDist := math.MaxFloat64
			for i, pc := range paletteBGR {
				if d := dist2(p, pc); d < bestDist {
					bestDist = d
					best = i
				}
			}
			c := colors[best]
			out.Set(x, y, uint8(c.RGB[2]), uint8(c.RGB[1]), uint8(c.RGB[0]))
		}
	}
	return out
}
