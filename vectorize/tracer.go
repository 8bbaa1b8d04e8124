package vectorize

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gotranspile/gotrace"
	"golang.org/x/image/bmp"
)

// 低于此字节数的描边输出视为无效
const minTraceOutput = 32

// TraceParams 单次描边调用的参数
type TraceParams struct {
	// ColorHex 要求引擎直接输出的填充色（#rrggbb）
	ColorHex string
	// TurdSize 丢弃小于该面积的斑点
	TurdSize int
	// AlphaMax 拐角平滑阈值
	AlphaMax float64
	// OptTolerance 曲线优化容差
	OptTolerance float64
}

// Tracer 把二值掩码转成矢量文档。传入的掩码已经完成了反转：
// 深色像素为待描边的前景。
type Tracer interface {
	Trace(ctx context.Context, mask *image.Gray, params TraceParams) (string, error)
}

// PotraceTracer 调用外部 potrace 进程。输入输出走临时文件，
// 每条退出路径上都保证删除；超时或取消时进程被杀掉而非放任。
type PotraceTracer struct {
	bin     string
	timeout time.Duration
}

// NewPotraceTracer 构造期检查二进制是否存在
func NewPotraceTracer(bin string, timeout time.Duration) (*PotraceTracer, error) {
	if bin == "" {
		bin = "potrace"
	}
	path, err := exec.LookPath(bin)
	if err != nil {
		return nil, fmt.Errorf("potrace binary %q not found: %w", bin, err)
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &PotraceTracer{bin: path, timeout: timeout}, nil
}

func (t *PotraceTracer) Trace(ctx context.Context, mask *image.Gray, params TraceParams) (string, error) {
	id := uuid.NewString()
	inPath := filepath.Join(os.TempDir(), "dv-trace-"+id+".bmp")
	outPath := filepath.Join(os.TempDir(), "dv-trace-"+id+".svg")
	defer os.Remove(inPath)
	defer os.Remove(outPath)

	in, err := os.Create(inPath)
	if err != nil {
		return "", fmt.Errorf("create trace input: %w", err)
	}
	// potrace 在部分平台上不认 PNG，统一用未压缩 BMP
	if err := bmp.Encode(in, mask); err != nil {
		in.Close()
		return "", fmt.Errorf("encode trace input: %w", err)
	}
	if err := in.Close(); err != nil {
		return "", fmt.Errorf("close trace input: %w", err)
	}

	cctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	cmd := exec.CommandContext(cctx, t.bin,
		inPath,
		"-o", outPath,
		"-s",
		"--turdsize", strconv.Itoa(params.TurdSize),
		"--alphamax", strconv.FormatFloat(params.AlphaMax, 'f', -1, 64),
		"--opttolerance", strconv.FormatFloat(params.OptTolerance, 'f', -1, 64),
		"--color", params.ColorHex,
		"--flat",
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		if cctx.Err() == context.DeadlineExceeded {
			return "", fmt.Errorf("potrace timed out after %s", t.timeout)
		}
		return "", fmt.Errorf("potrace failed: %w (output: %s)", err, out)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		return "", fmt.Errorf("read trace output: %w", err)
	}
	if len(data) < minTraceOutput {
		return "", fmt.Errorf("trace output too small: %d bytes", len(data))
	}
	return string(data), nil
}

// GotraceTracer 进程内实现，potrace 二进制缺失时的替身。
// 调用形状与外部引擎一致，调用方无需区分。
type GotraceTracer struct{}

func NewGotraceTracer() *GotraceTracer {
	return &GotraceTracer{}
}

func (t *GotraceTracer) Trace(_ context.Context, mask *image.Gray, params TraceParams) (string, error) {
	bm := gotrace.BitmapFromGray(mask, nil)

	paths, err := gotrace.Trace(bm, &gotrace.Config{
		TurdSize:     params.TurdSize,
		AlphaMax:     params.AlphaMax,
		OptiCurve:    true,
		OptTolerance: params.OptTolerance,
	})
	if err != nil {
		return "", fmt.Errorf("gotrace: %w", err)
	}

	var buf bytes.Buffer
	sz := mask.Bounds().Size()
	if err := gotrace.Render("svg", nil, &buf, paths, sz.X, sz.Y); err != nil {
		return "", fmt.Errorf("gotrace render: %w", err)
	}
	if buf.Len() < minTraceOutput {
		return "", fmt.Errorf("trace output too small: %d bytes", buf.Len())
	}
	return buf.String(), nil
}
