// Package vectorize 实现阶段 4：逐区域描边并按固定层序合成矢量文档。
package vectorize

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"

	svg "github.com/ajstarks/svgo"
	"go.uber.org/zap"

	"drawvec/morph"
	dvtypes "drawvec/type"
)

// ErrNoPaths 所有区域都没有贡献路径时的终态失败
var ErrNoPaths = errors.New("vectorization produced no paths")

// 风格相关的描边参数：保留风格用低容差低斑点阈值，贴住毛糙的输入；
// 干净风格放宽两者换平滑轮廓
const (
	alphaMax = 1.0

	preserveTolerance = 0.2
	preserveTurdSize  = 3

	cleanTolerance = 0.4
	cleanTurdSize  = 5
)

// Vectorizer 持有描边引擎与并发上限
type Vectorizer struct {
	tracer  Tracer
	workers int
	log     *zap.Logger
}

func New(tracer Tracer, workers int, log *zap.Logger) *Vectorizer {
	if workers < 1 {
		workers = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Vectorizer{tracer: tracer, workers: workers, log: log}
}

// Vectorize 并发描边所有区域后按区域列表顺序合成。
// 单区域失败只丢弃该区域；返回值里带上实际贡献内容的区域数。
func (v *Vectorizer) Vectorize(ctx context.Context, regions []dvtypes.ColorRegion, width, height int, preserveStyle bool) (string, int, error) {
	params := TraceParams{AlphaMax: alphaMax}
	if preserveStyle {
		params.OptTolerance = preserveTolerance
		params.TurdSize = preserveTurdSize
	} else {
		params.OptTolerance = cleanTolerance
		params.TurdSize = cleanTurdSize
	}

	// 结果按区域下标落位，合成顺序与完成顺序无关
	results := make([][]tracedPath, len(regions))

	var wg sync.WaitGroup
	sem := make(chan struct{}, v.workers)
	for i, region := range regions {
		wg.Add(1)
		go func(idx int, region dvtypes.ColorRegion) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			p := params
			p.ColorHex = region.Info.Hex

			// 引擎描深色像素，掩码约定相反，先反转
			doc, err := v.tracer.Trace(ctx, morph.Invert(region.Mask), p)
			if err != nil {
				v.log.Warn("region trace failed, dropping region",
					zap.String("color", region.Info.Hex),
					zap.Int("area", region.Area),
					zap.Error(err))
				return
			}
			paths := extractPaths(doc)
			if len(paths) == 0 {
				v.log.Warn("region trace returned no usable paths, dropping region",
					zap.String("color", region.Info.Hex),
					zap.Int("area", region.Area))
				return
			}
			results[idx] = paths
		}(i, region)
	}
	wg.Wait()

	var buf bytes.Buffer
	canvas := svg.New(&buf)
	canvas.Start(width, height, fmt.Sprintf(`viewBox="0 0 %d %d"`, width, height))
	canvas.Gid("drawing")

	contributed := 0
	for i, region := range regions {
		if len(results[i]) == 0 {
			continue
		}
		contributed++
		// 填充色以区域为准，引擎给的颜色一律覆盖
		canvas.Group(fmt.Sprintf(`fill="%s"`, region.Info.Hex), `stroke="none"`)
		for _, p := range results[i] {
			canvas.Path(p.D, fmt.Sprintf(`fill="%s"`, region.Info.Hex))
		}
		canvas.Gend()
	}
	canvas.Gend()
	canvas.End()

	if contributed == 0 {
		return "", 0, ErrNoPaths
	}
	return buf.String(), contributed, nil
}
