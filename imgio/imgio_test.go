package imgio

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func TestFitWithin(t *testing.T) {
	tests := []struct {
		name   string
		w, h   int
		maxDim int
		wantW  int
		wantH  int
	}{
		{"no resize needed", 800, 600, 1500, 800, 600},
		{"wide image", 3000, 1500, 1500, 1500, 750},
		{"tall image", 1000, 2000, 1500, 750, 1500},
		{"exact bound", 1500, 1000, 1500, 1500, 1000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := image.NewRGBA(image.Rect(0, 0, tt.w, tt.h))
			got := FitWithin(img, tt.maxDim)
			b := got.Bounds()
			if b.Dx() != tt.wantW || b.Dy() != tt.wantH {
				t.Errorf("FitWithin(%dx%d, %d) = %dx%d, want %dx%d",
					tt.w, tt.h, tt.maxDim, b.Dx(), b.Dy(), tt.wantW, tt.wantH)
			}
		})
	}
}

func TestBGRRoundTrip(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 3, 2))
	src.SetRGBA(0, 0, color.RGBA{R: 255, G: 0, B: 0, A: 255})
	src.SetRGBA(1, 0, color.RGBA{R: 0, G: 255, B: 0, A: 255})
	src.SetRGBA(2, 1, color.RGBA{R: 10, G: 20, B: 30, A: 255})

	bgr := ToBGR(src)
	if b, g, r := bgr.At(0, 0); b != 0 || g != 0 || r != 255 {
		t.Errorf("At(0,0) = (%d,%d,%d), want BGR (0,0,255)", b, g, r)
	}
	if b, g, r := bgr.At(2, 1); b != 30 || g != 20 || r != 10 {
		t.Errorf("At(2,1) = (%d,%d,%d), want BGR (30,20,10)", b, g, r)
	}

	back := FromBGR(bgr)
	if got := back.RGBAAt(1, 0); got.G != 255 || got.R != 0 || got.B != 0 {
		t.Errorf("round trip At(1,0) = %+v", got)
	}
}

func TestAlphaMaskOpaqueWithoutAlpha(t *testing.T) {
	// YCbCr 没有 alpha 通道，掩码应当全置位
	img := image.NewYCbCr(image.Rect(0, 0, 4, 4), image.YCbCrSubsampleRatio444)
	mask := AlphaMask(img)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			if mask.GrayAt(x, y).Y != 255 {
				t.Fatalf("mask at (%d,%d) = %d, want 255", x, y, mask.GrayAt(x, y).Y)
			}
		}
	}
}

func TestAlphaMaskFromRGBA(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.SetRGBA(0, 0, color.RGBA{R: 1, G: 1, B: 1, A: 255})
	img.SetRGBA(1, 0, color.RGBA{})
	mask := AlphaMask(img)
	if mask.GrayAt(0, 0).Y != 255 || mask.GrayAt(1, 0).Y != 0 {
		t.Errorf("mask = [%d %d], want [255 0]", mask.GrayAt(0, 0).Y, mask.GrayAt(1, 0).Y)
	}
}

func TestDecodePNG(t *testing.T) {
	var buf bytes.Buffer
	src := image.NewRGBA(image.Rect(0, 0, 5, 5))
	if err := png.Encode(&buf, src); err != nil {
		t.Fatal(err)
	}
	img, err := DecodeBytes(buf.Bytes())
	if err != nil {
		t.Fatalf("DecodeBytes: %v", err)
	}
	if img.Bounds().Dx() != 5 {
		t.Errorf("decoded width = %d, want 5", img.Bounds().Dx())
	}
}

func TestDecodeGarbage(t *testing.T) {
	if _, err := DecodeBytes([]byte("not an image")); err == nil {
		t.Error("expected error for garbage input")
	}
}
