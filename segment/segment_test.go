package segment

import (
	"image"
	"image/color"
	"testing"

	dvtypes "drawvec/type"
)

// 白底上红蓝两块的压平图与对应前景掩码
func flattenedFixture() (*dvtypes.ImageBGR, *image.Gray, []dvtypes.ColorInfo) {
	img := dvtypes.NewImageBGR(60, 60)
	mask := image.NewGray(image.Rect(0, 0, 60, 60))
	for y := 0; y < 60; y++ {
		for x := 0; x < 60; x++ {
			switch {
			case x < 30 && y < 40: // 红 30×40
				img.Set(x, y, 0, 0, 255)
				mask.SetGray(x, y, color.Gray{Y: 255})
			case x >= 35 && x < 55 && y >= 35 && y < 55: // 蓝 20×20
				img.Set(x, y, 255, 0, 0)
				mask.SetGray(x, y, color.Gray{Y: 255})
			default:
				img.Set(x, y, 255, 255, 255)
			}
		}
	}
	colors := []dvtypes.ColorInfo{
		dvtypes.NewColorInfo(255, 0, 0, 1200, 75),
		dvtypes.NewColorInfo(0, 0, 255, 400, 25),
	}
	return img, mask, colors
}

func TestSegmentOrderAndBounds(t *testing.T) {
	img, mask, colors := flattenedFixture()
	regions := Segment(img, mask, colors, true)

	if len(regions) != 2 {
		t.Fatalf("got %d regions, want 2", len(regions))
	}
	if regions[0].Info.Hex != "#ff0000" || regions[1].Info.Hex != "#0000ff" {
		t.Errorf("region order = [%s %s], want [red blue]",
			regions[0].Info.Hex, regions[1].Info.Hex)
	}
	if regions[0].Area < regions[1].Area {
		t.Error("regions not sorted by area descending")
	}

	rb := regions[0].Bounds
	if rb.X != 0 || rb.Y != 0 || rb.Width != 30 || rb.Height != 40 {
		t.Errorf("red bounds = %+v, want {0 0 30 40}", rb)
	}
	bb := regions[1].Bounds
	if bb.X != 35 || bb.Y != 35 || bb.Width != 20 || bb.Height != 20 {
		t.Errorf("blue bounds = %+v, want {35 35 20 20}", bb)
	}
}

func TestSegmentMasksSubsetOfForeground(t *testing.T) {
	img, mask, colors := flattenedFixture()
	for _, preserve := range []bool{true, false} {
		regions := Segment(img, mask, colors, preserve)
		for _, region := range regions {
			b := region.Mask.Bounds()
			for y := b.Min.Y; y < b.Max.Y; y++ {
				for x := b.Min.X; x < b.Max.X; x++ {
					if dvtypes.MaskSet(region.Mask, x, y) && !dvtypes.MaskSet(mask, x, y) {
						t.Fatalf("preserve=%v: region %s pixel (%d,%d) outside foreground",
							preserve, region.Info.Hex, x, y)
					}
				}
			}
		}
	}
}

func TestSegmentAreaFloor(t *testing.T) {
	// 9×9=81 像素，低于 100 的下限
	img := dvtypes.NewImageBGR(30, 30)
	mask := image.NewGray(image.Rect(0, 0, 30, 30))
	for y := 0; y < 30; y++ {
		for x := 0; x < 30; x++ {
			img.Set(x, y, 255, 255, 255)
		}
	}
	for y := 10; y < 19; y++ {
		for x := 10; x < 19; x++ {
			img.Set(x, y, 0, 0, 255)
			mask.SetGray(x, y, color.Gray{Y: 255})
		}
	}
	colors := []dvtypes.ColorInfo{dvtypes.NewColorInfo(255, 0, 0, 81, 100)}

	regions := Segment(img, mask, colors, true)
	if len(regions) != 0 {
		t.Errorf("region below area floor survived, got %d regions", len(regions))
	}
}

func TestSegmentEmptyPalette(t *testing.T) {
	img, mask, _ := flattenedFixture()
	if regions := Segment(img, mask, nil, true); len(regions) != 0 {
		t.Errorf("nil palette yielded %d regions", len(regions))
	}
}

func TestSegmentToleranceMatching(t *testing.T) {
	img := dvtypes.NewImageBGR(30, 30)
	mask := image.NewGray(image.Rect(0, 0, 30, 30))
	for y := 0; y < 30; y++ {
		for x := 0; x < 30; x++ {
			mask.SetGray(x, y, color.Gray{Y: 255})
			if x < 15 {
				img.Set(x, y, 8, 5, 250) // 容差内的近红
			} else {
				img.Set(x, y, 0, 0, 180) // 超出容差的暗红
			}
		}
	}
	colors := []dvtypes.ColorInfo{dvtypes.NewColorInfo(255, 0, 0, 450, 50)}

	regions := Segment(img, mask, colors, true)
	if len(regions) != 1 {
		t.Fatalf("got %d regions, want 1", len(regions))
	}
	if regions[0].Area > 15*30 {
		t.Errorf("out-of-tolerance pixels leaked into region, area = %d", regions[0].Area)
	}
	if !dvtypes.MaskSet(regions[0].Mask, 5, 15) {
		t.Error("in-tolerance pixel excluded from region")
	}
	if dvtypes.MaskSet(regions[0].Mask, 20, 15) {
		t.Error("out-of-tolerance pixel included in region")
	}
}

func TestSegmentAreaFloorPrecedesStyleCleanup(t *testing.T) {
	// 2×60=120 像素的细条过了面积门槛；干净风格的 3×3 开运算
	// 只清掩码本身，不回头否决这个区域
	img := dvtypes.NewImageBGR(40, 70)
	mask := image.NewGray(image.Rect(0, 0, 40, 70))
	for y := 0; y < 70; y++ {
		for x := 0; x < 40; x++ {
			img.Set(x, y, 255, 255, 255)
		}
	}
	for y := 5; y < 65; y++ {
		for x := 19; x < 21; x++ {
			img.Set(x, y, 0, 0, 255)
			mask.SetGray(x, y, color.Gray{Y: 255})
		}
	}
	colors := []dvtypes.ColorInfo{dvtypes.NewColorInfo(255, 0, 0, 120, 100)}

	regions := Segment(img, mask, colors, false)
	if len(regions) != 1 {
		t.Fatalf("got %d regions, want 1", len(regions))
	}
	if regions[0].Area != 120 {
		t.Errorf("area = %d, want pre-cleanup 120", regions[0].Area)
	}
	b := regions[0].Bounds
	if b.X != 19 || b.Y != 5 || b.Width != 2 || b.Height != 60 {
		t.Errorf("bounds = %+v, want pre-cleanup {19 5 2 60}", b)
	}
	// 掩码本身允许被激进清理清空，后续矢量化阶段负责软丢弃
	if got := dvtypes.MaskArea(regions[0].Mask); got != 0 {
		t.Errorf("aggressive cleanup left %d pixels of a 2px stroke", got)
	}
}

func TestCleanBoundariesAggressiveRemovesThinStroke(t *testing.T) {
	// 2 像素宽的细条：保留风格下应存活，干净风格会被 3×3 开运算吃掉
	mask := image.NewGray(image.Rect(0, 0, 40, 40))
	for y := 5; y < 35; y++ {
		for x := 19; x < 21; x++ {
			mask.SetGray(x, y, color.Gray{Y: 255})
		}
	}
	preserved := cleanBoundaries(mask, true)
	if dvtypes.MaskArea(preserved) == 0 {
		t.Error("preserve style removed the thin stroke entirely")
	}
	cleaned := cleanBoundaries(mask, false)
	if dvtypes.MaskArea(cleaned) != 0 {
		t.Errorf("aggressive cleaning kept %d pixels of a 2px stroke", dvtypes.MaskArea(cleaned))
	}
}
