package pipeline

import (
	"context"
	"errors"
	"image"
	"image/color"
	"strings"
	"testing"

	dvtypes "drawvec/type"
	"drawvec/vectorize"
)

// twoSquares 200×200 白底：红块占前景 75%，蓝块占 25%
func twoSquares() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 200, 200))
	for y := 0; y < 200; y++ {
		for x := 0; x < 200; x++ {
			switch {
			case y < 100 && x < 150:
				img.SetRGBA(x, y, color.RGBA{R: 200, A: 255})
			case y >= 100 && x < 50:
				img.SetRGBA(x, y, color.RGBA{B: 200, A: 255})
			default:
				img.SetRGBA(x, y, color.RGBA{R: 255, G: 255, B: 255, A: 255})
			}
		}
	}
	return img
}

func blankImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 100, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			img.SetRGBA(x, y, color.RGBA{R: 255, G: 255, B: 255, A: 255})
		}
	}
	return img
}

// okTracer 任何区域都返回一条路径
type okTracer struct{}

func (okTracer) Trace(_ context.Context, _ *image.Gray, _ vectorize.TraceParams) (string, error) {
	return `<svg xmlns="http://www.w3.org/2000/svg" width="200" height="200"><path d="M0 0L10 0L10 10Z"/></svg>`, nil
}

// smallRegionFailsTracer 模拟小区域描边超时
type smallRegionFailsTracer struct{}

func (smallRegionFailsTracer) Trace(_ context.Context, mask *image.Gray, _ vectorize.TraceParams) (string, error) {
	members := 0
	b := mask.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if mask.GrayAt(x, y).Y < dvtypes.MaskThreshold {
				members++
			}
		}
	}
	if members < 10000 {
		return "", errors.New("trace timed out")
	}
	return `<svg xmlns="http://www.w3.org/2000/svg" width="200" height="200"><path d="M0 0L10 0L10 10Z"/></svg>`, nil
}

func newTestPipeline(tracer vectorize.Tracer) *Pipeline {
	return New(nil, tracer, 2, 1500, nil)
}

func TestProcessTwoColorScenario(t *testing.T) {
	p := newTestPipeline(okTracer{})
	result, err := p.Process(context.Background(), twoSquares(), Options{
		ColorCount:    5,
		PreserveStyle: true,
	})
	if err != nil {
		t.Fatal(err)
	}

	if len(result.Colors) != 2 {
		t.Fatalf("palette size = %d, want 2", len(result.Colors))
	}
	if result.Colors[0].Percentage < 72 || result.Colors[0].Percentage > 78 {
		t.Errorf("dominant percentage = %.2f, want ~75", result.Colors[0].Percentage)
	}
	if result.Colors[1].Percentage < 22 || result.Colors[1].Percentage > 28 {
		t.Errorf("secondary percentage = %.2f, want ~25", result.Colors[1].Percentage)
	}
	// 主色偏红、次色偏蓝
	if !(result.Colors[0].RGB[0] > 150 && result.Colors[0].RGB[2] < 100) {
		t.Errorf("dominant color %v not red-dominant", result.Colors[0].RGB)
	}
	if !(result.Colors[1].RGB[2] > 150 && result.Colors[1].RGB[0] < 100) {
		t.Errorf("secondary color %v not blue-dominant", result.Colors[1].RGB)
	}

	if result.RegionCount != 2 {
		t.Errorf("region count = %d, want 2", result.RegionCount)
	}

	// 合成顺序：大区域（红）在前
	redAt := strings.Index(result.SVG, `fill="`+result.Colors[0].Hex+`"`)
	blueAt := strings.Index(result.SVG, `fill="`+result.Colors[1].Hex+`"`)
	if redAt < 0 || blueAt < 0 {
		t.Fatal("palette colors missing from document")
	}
	if redAt > blueAt {
		t.Error("larger region not composited first")
	}

	if !strings.Contains(result.SVG, "Style: authentic") {
		t.Error("metadata missing authentic style label")
	}
	if result.OriginalSize.Width != 200 || result.ProcessedSize.Width != 200 {
		t.Errorf("sizes = %+v / %+v", result.OriginalSize, result.ProcessedSize)
	}
}

func TestProcessBlankImage(t *testing.T) {
	p := newTestPipeline(okTracer{})
	_, err := p.Process(context.Background(), blankImage(), Options{ColorCount: 3, PreserveStyle: true})
	if !errors.Is(err, ErrEmptyPalette) {
		t.Errorf("err = %v, want ErrEmptyPalette", err)
	}
}

func TestProcessIdempotent(t *testing.T) {
	p := newTestPipeline(okTracer{})
	opts := Options{ColorCount: 5, PreserveStyle: true}

	a, err := p.Process(context.Background(), twoSquares(), opts)
	if err != nil {
		t.Fatal(err)
	}
	b, err := p.Process(context.Background(), twoSquares(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if len(a.Colors) != len(b.Colors) {
		t.Fatalf("palette sizes differ: %d vs %d", len(a.Colors), len(b.Colors))
	}
	for i := range a.Colors {
		if a.Colors[i].Hex != b.Colors[i].Hex {
			t.Errorf("entry %d differs across runs: %s vs %s", i, a.Colors[i].Hex, b.Colors[i].Hex)
		}
	}
}

func TestProcessPartialTraceFailure(t *testing.T) {
	p := newTestPipeline(smallRegionFailsTracer{})
	result, err := p.Process(context.Background(), twoSquares(), Options{
		ColorCount:    5,
		PreserveStyle: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	// 蓝色小区域描边失败被丢弃，文档里只剩红色
	if result.RegionCount != 1 {
		t.Errorf("region count = %d, want 1", result.RegionCount)
	}
	if !strings.Contains(result.SVG, result.Colors[0].Hex) {
		t.Error("surviving region missing from document")
	}
	if strings.Contains(result.SVG, `fill="`+result.Colors[1].Hex+`"`) {
		t.Error("failed region leaked into document")
	}
}

func TestProcessResizesOversizeInput(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 300, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 300; x++ {
			if x < 200 {
				img.SetRGBA(x, y, color.RGBA{R: 200, A: 255})
			} else {
				img.SetRGBA(x, y, color.RGBA{R: 255, G: 255, B: 255, A: 255})
			}
		}
	}
	p := New(nil, okTracer{}, 2, 150, nil)
	result, err := p.Process(context.Background(), img, Options{ColorCount: 3, PreserveStyle: true})
	if err != nil {
		t.Fatal(err)
	}
	if result.OriginalSize.Width != 300 {
		t.Errorf("original width = %d, want 300", result.OriginalSize.Width)
	}
	if result.ProcessedSize.Width != 150 || result.ProcessedSize.Height != 50 {
		t.Errorf("processed size = %+v, want 150x50", result.ProcessedSize)
	}
}
