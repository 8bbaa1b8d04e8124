package isolate

// claheTiles × claheTiles 个分块，各自做限幅直方图均衡，
// 像素取值在相邻分块映射表之间双线性插值。
const (
	claheTiles     = 8
	claheClipLimit = 2.0
)

// clahe 对单通道平面做局部直方图均衡，输入为按行展开的 width×height 字节
func clahe(plane []uint8, width, height int) []uint8 {
	tileW := (width + claheTiles - 1) / claheTiles
	tileH := (height + claheTiles - 1) / claheTiles

	// 每个分块一张 LUT
	luts := make([][256]uint8, claheTiles*claheTiles)
	for ty := 0; ty < claheTiles; ty++ {
		for tx := 0; tx < claheTiles; tx++ {
			x0, y0 := tx*tileW, ty*tileH
			x1, y1 := min(x0+tileW, width), min(y0+tileH, height)
			luts[ty*claheTiles+tx] = tileLUT(plane, width, x0, y0, x1, y1)
		}
	}

	out := make([]uint8, len(plane))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := plane[y*width+x]

			// 以分块中心为插值网格
			fx := (float64(x) - float64(tileW)/2) / float64(tileW)
			fy := (float64(y) - float64(tileH)/2) / float64(tileH)
			tx0 := int(fx)
			ty0 := int(fy)
			if fx < 0 {
				tx0 = -1
			}
			if fy < 0 {
				ty0 = -1
			}
			wx := fx - float64(tx0)
			wy := fy - float64(ty0)

			v00 := lutAt(luts, tx0, ty0, v)
			v10 := lutAt(luts, tx0+1, ty0, v)
			v01 := lutAt(luts, tx0, ty0+1, v)
			v11 := lutAt(luts, tx0+1, ty0+1, v)

			top := v00*(1-wx) + v10*wx
			bot := v01*(1-wx) + v11*wx
			out[y*width+x] = clampByte(top*(1-wy) + bot*wy)
		}
	}
	return out
}

func lutAt(luts [][256]uint8, tx, ty int, v uint8) float64 {
	if tx < 0 {
		tx = 0
	}
	if ty < 0 {
		ty = 0
	}
	if tx >= claheTiles {
		tx = claheTiles - 1
	}
	if ty >= claheTiles {
		ty = claheTiles - 1
	}
	return float64(luts[ty*claheTiles+tx][v])
}

// tileLUT 构造单个分块的限幅均衡映射表
func tileLUT(plane []uint8, width, x0, y0, x1, y1 int) [256]uint8 {
	var hist [256]int
	area := (x1 - x0) * (y1 - y0)
	if area == 0 {
		var identity [256]uint8
		for i := range identity {
			identity[i] = uint8(i)
		}
		return identity
	}
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			hist[plane[y*width+x]]++
		}
	}

	// 限幅并把超出部分均匀回填
	clip := int(claheClipLimit * float64(area) / 256)
	if clip < 1 {
		clip = 1
	}
	excess := 0
	for i := range hist {
		if hist[i] > clip {
			excess += hist[i] - clip
			hist[i] = clip
		}
	}
	add := excess / 256
	rem := excess % 256
	for i := range hist {
		hist[i] += add
		if i < rem {
			hist[i]++
		}
	}

	var lut [256]uint8
	cum := 0
	for i := range hist {
		cum += hist[i]
		lut[i] = uint8(cum * 255 / area)
	}
	return lut
}
