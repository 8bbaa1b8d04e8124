// Package pipeline 把五个阶段串成一次请求内的同步流水线。
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"time"

	"go.uber.org/zap"

	"drawvec/finalize"
	"drawvec/imgio"
	"drawvec/isolate"
	"drawvec/palette"
	"drawvec/segment"
	dvtypes "drawvec/type"
	"drawvec/vectorize"
)

// 流水线终态失败，句柄层据此区分错误信息
var (
	ErrEmptyPalette  = errors.New("failed to extract colors from image")
	ErrNoRegions     = errors.New("failed to segment image into color regions")
	ErrEmptyDocument = errors.New("vectorization failed or produced empty result")
)

// 成品文档的最小合理长度
const minDocumentSize = 100

// Options 单次请求的处理参数
type Options struct {
	ColorCount    int
	PreserveStyle bool
	UseAI         bool
}

// Result 一次成功处理的完整产物
type Result struct {
	SVG            string
	Colors         []dvtypes.ColorInfo
	OriginalSize   dvtypes.Size
	ProcessedSize  dvtypes.Size
	ProcessingTime float64
	RegionCount    int
}

// Pipeline 持有全部注入的能力；自身无状态，可被并发请求共享
type Pipeline struct {
	withOracle    *isolate.Isolator
	withoutOracle *isolate.Isolator
	vectorizer    *vectorize.Vectorizer
	maxDimension  int
	log           *zap.Logger
}

// New 组装流水线。oracle 可为 nil（未配置或启动时探测不可用），
// 此时 useAI 请求也走阈值路径。
func New(oracle isolate.Oracle, tracer vectorize.Tracer, workers, maxDimension int, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	if maxDimension <= 0 {
		maxDimension = 1500
	}
	return &Pipeline{
		withOracle:    isolate.New(oracle, log),
		withoutOracle: isolate.New(nil, log),
		vectorizer:    vectorize.New(tracer, workers, log),
		maxDimension:  maxDimension,
		log:           log,
	}
}

// Process 同步跑完五个阶段。阶段边界是硬同步点，
// 每个阶段只消费上一阶段的完整输出。
func (p *Pipeline) Process(ctx context.Context, img image.Image, opts Options) (*Result, error) {
	start := time.Now()

	originalSize := dvtypes.Size{
		Width:  img.Bounds().Dx(),
		Height: img.Bounds().Dy(),
	}
	resized := imgio.FitWithin(img, p.maxDimension)
	if resized != img {
		p.log.Info("resized input image",
			zap.Int("from_width", originalSize.Width),
			zap.Int("from_height", originalSize.Height),
			zap.Int("to_width", resized.Bounds().Dx()),
			zap.Int("to_height", resized.Bounds().Dy()))
	}
	bgr := imgio.ToBGR(resized)
	processedSize := dvtypes.Size{Width: bgr.Width, Height: bgr.Height}

	// 阶段 1：前景隔离
	stageStart := time.Now()
	isolator := p.withoutOracle
	if opts.UseAI {
		isolator = p.withOracle
	}
	processed, mask, err := isolator.Isolate(ctx, bgr)
	if err != nil {
		return nil, fmt.Errorf("isolate: %w", err)
	}
	p.log.Info("stage 1 preprocessing done", zap.Duration("elapsed", time.Since(stageStart)))

	// 阶段 2：调色板抽取
	stageStart = time.Now()
	colors, flattened := palette.Extract(processed, mask, opts.ColorCount)
	p.log.Info("stage 2 color extraction done",
		zap.Duration("elapsed", time.Since(stageStart)),
		zap.Int("colors", len(colors)))
	if len(colors) == 0 {
		return nil, ErrEmptyPalette
	}

	// 阶段 3：区域分割
	stageStart = time.Now()
	regions := segment.Segment(flattened, mask, colors, opts.PreserveStyle)
	p.log.Info("stage 3 segmentation done",
		zap.Duration("elapsed", time.Since(stageStart)),
		zap.Int("regions", len(regions)))
	if len(regions) == 0 {
		return nil, ErrNoRegions
	}

	// 阶段 4：逐区域矢量化
	stageStart = time.Now()
	body, contributed, err := p.vectorizer.Vectorize(ctx, regions, bgr.Width, bgr.Height, opts.PreserveStyle)
	if err != nil {
		if errors.Is(err, vectorize.ErrNoPaths) {
			return nil, ErrEmptyDocument
		}
		return nil, fmt.Errorf("vectorize: %w", err)
	}
	if len(body) < minDocumentSize {
		return nil, ErrEmptyDocument
	}
	p.log.Info("stage 4 vectorization done",
		zap.Duration("elapsed", time.Since(stageStart)),
		zap.Int("contributed_regions", contributed),
		zap.Int("svg_bytes", len(body)))

	// 阶段 5：收尾
	style := "clean"
	if opts.PreserveStyle {
		style = "authentic"
	}
	elapsed := math.Round(time.Since(start).Seconds()*100) / 100
	final := finalize.Finalize(body, colors, originalSize, dvtypes.ProcessingInfo{
		Style:          style,
		ProcessingTime: elapsed,
	})

	return &Result{
		SVG:            final,
		Colors:         colors,
		OriginalSize:   originalSize,
		ProcessedSize:  processedSize,
		ProcessingTime: elapsed,
		RegionCount:    contributed,
	}, nil
}
