package isolate

import (
	"math"

	dvtypes "drawvec/type"
)

// 双边滤波参数，为保留笔触边缘而调
const (
	bilateralDiameter   = 9
	bilateralSigmaColor = 75.0
	bilateralSigmaSpace = 75.0
)

// bilateral 边缘保持去噪：空间权重 × 颜色权重，颜色差大的邻居不参与平均，
// 笔画边界因此不被抹平
func bilateral(img *dvtypes.ImageBGR) *dvtypes.ImageBGR {
	radius := bilateralDiameter / 2

	// 空间权重表
	spatial := make([]float64, bilateralDiameter*bilateralDiameter)
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			d2 := float64(dx*dx + dy*dy)
			spatial[(dy+radius)*bilateralDiameter+(dx+radius)] =
				math.Exp(-d2 / (2 * bilateralSigmaSpace * bilateralSigmaSpace))
		}
	}

	// 颜色权重表，键为三通道绝对差之和
	colorW := make([]float64, 3*256)
	for i := range colorW {
		colorW[i] = math.Exp(-float64(i*i) / (2 * bilateralSigmaColor * bilateralSigmaColor))
	}

	out := dvtypes.NewImageBGR(img.Width, img.Height)
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			cb, cg, cr := img.At(x, y)
			var sb, sg, sr, sw float64
			for dy := -radius; dy <= radius; dy++ {
				yy := y + dy
				if yy < 0 || yy >= img.Height {
					continue
				}
				for dx := -radius; dx <= radius; dx++ {
					xx := x + dx
					if xx < 0 || xx >= img.Width {
						continue
					}
					nb, ng, nr := img.At(xx, yy)
					diff := absInt(int(nb)-int(cb)) + absInt(int(ng)-int(cg)) + absInt(int(nr)-int(cr))
					w := spatial[(dy+radius)*bilateralDiameter+(dx+radius)] * colorW[diff]
					sb += w * float64(nb)
					sg += w * float64(ng)
					sr += w * float64(nr)
					sw += w
				}
			}
			out.Set(x, y, clampByte(sb/sw), clampByte(sg/sw), clampByte(sr/sw))
		}
	}
	return out
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
