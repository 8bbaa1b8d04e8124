// Package isolate 实现阶段 1：前景隔离、光照归一化与保边去噪。
package isolate

import (
	"context"
	"image"
	"image/color"

	"go.uber.org/zap"

	"drawvec/morph"
	dvtypes "drawvec/type"
)

// 亮度阈值：近白视为背景
const backgroundLightness = 240

// 背景统一填白
const backgroundValue = 255

// Isolator 组合抠图能力与后续归一化。oracle 为 nil 时只走阈值路径。
type Isolator struct {
	oracle Oracle
	log    *zap.Logger
}

func New(oracle Oracle, log *zap.Logger) *Isolator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Isolator{oracle: oracle, log: log}
}

// Isolate 返回前景掩码与限制在前景内的彩色图（背景填白）。
// oracle 失败不会导致请求失败：记日志并退化到阈值分割。
func (s *Isolator) Isolate(ctx context.Context, img *dvtypes.ImageBGR) (*dvtypes.ImageBGR, *image.Gray, error) {
	mask := s.acquireMask(ctx, img)

	masked := applyMask(img, mask)

	// 只均衡 L 通道，色相饱和度保持不动
	normalized := normalizeLighting(masked)
	denoised := bilateral(normalized)

	// 去噪不得改变前景范围，按原掩码重新填背景
	result := applyMask(denoised, mask)

	return result, mask, nil
}

func (s *Isolator) acquireMask(ctx context.Context, img *dvtypes.ImageBGR) *image.Gray {
	if s.oracle != nil {
		mask, err := s.oracle.Mask(ctx, img)
		if err == nil {
			return mask
		}
		s.log.Warn("foreground oracle failed, falling back to threshold segmentation",
			zap.Error(err))
	}
	return thresholdMask(img)
}

// thresholdMask 阈值回退：Lab 的 L 通道近白判背景，再闭开运算去斑补洞
func thresholdMask(img *dvtypes.ImageBGR) *image.Gray {
	mask := image.NewGray(image.Rect(0, 0, img.Width, img.Height))
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			b, g, r := img.At(x, y)
			l, _, _ := bgrToLab(b, g, r)
			if l <= backgroundLightness {
				mask.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	mask = morph.Close(mask, 3, 1)
	mask = morph.Open(mask, 3, 1)
	return mask
}

func applyMask(img *dvtypes.ImageBGR, mask *image.Gray) *dvtypes.ImageBGR {
	out := img.Clone()
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			if !dvtypes.MaskSet(mask, x, y) {
				out.Set(x, y, backgroundValue, backgroundValue, backgroundValue)
			}
		}
	}
	return out
}

// normalizeLighting 转 Lab 后对 L 做 CLAHE，再转回 BGR
func normalizeLighting(img *dvtypes.ImageBGR) *dvtypes.ImageBGR {
	n := img.Width * img.Height
	lp := make([]uint8, n)
	ap := make([]uint8, n)
	bp := make([]uint8, n)
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			b, g, r := img.At(x, y)
			l, a, bb := bgrToLab(b, g, r)
			i := y*img.Width + x
			lp[i], ap[i], bp[i] = l, a, bb
		}
	}

	lp = clahe(lp, img.Width, img.Height)

	out := dvtypes.NewImageBGR(img.Width, img.Height)
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			i := y*img.Width + x
			b, g, r := labToBGR(lp[i], ap[i], bp[i])
			out.Set(x, y, b, g, r)
		}
	}
	return out
}
