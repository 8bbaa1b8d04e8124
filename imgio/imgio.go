// Package imgio 负责图像的解码、缩放以及与流水线内部 BGR 表示的互转。
package imgio

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"io"

	_ "image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	dvtypes "drawvec/type"
)

// Decode 解码 PNG/JPEG/WebP
func Decode(r io.Reader) (image.Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// DecodeBytes 从内存解码
func DecodeBytes(data []byte) (image.Image, error) {
	return Decode(bytes.NewReader(data))
}

// FitWithin 等比缩放，使最长边不超过 maxDim；不需要缩放时原样返回
func FitWithin(img image.Image, maxDim int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxDim && h <= maxDim {
		return img
	}
	var nw, nh int
	if w > h {
		nw = maxDim
		nh = h * maxDim / w
	} else {
		nh = maxDim
		nw = w * maxDim / h
	}
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// ToBGR 将标准库图像转为内部 BGR 表示
func ToBGR(img image.Image) *dvtypes.ImageBGR {
	b := img.Bounds()
	out := dvtypes.NewImageBGR(b.Dx(), b.Dy())
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			r, g, bb, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			out.Set(x, y, uint8(bb>>8), uint8(g>>8), uint8(r>>8))
		}
	}
	return out
}

// FromBGR 将内部表示转回标准库 RGBA
func FromBGR(img *dvtypes.ImageBGR) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, img.Width, img.Height))
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			b, g, r := img.At(x, y)
			out.SetRGBA(x, y, color.RGBA{R: r, G: g, B: b, A: 255})
		}
	}
	return out
}

// AlphaMask 取 RGBA 图像的 alpha 通道作掩码；没有 alpha 的图像视为全前景
func AlphaMask(img image.Image) *image.Gray {
	b := img.Bounds()
	mask := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			_, _, _, a := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			mask.SetGray(x, y, color.Gray{Y: uint8(a >> 8)})
		}
	}
	return mask
}
