package isolate

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"drawvec/imgio"
	dvtypes "drawvec/type"
)

// Oracle 是前景/背景判定能力。实现要么是外部 AI 抠图模型，
// 要么是阈值回退；选择在构造期完成，不走全局标志。
type Oracle interface {
	Mask(ctx context.Context, img *dvtypes.ImageBGR) (*image.Gray, error)
}

// CommandOracle 通过外部命令（rembg 风格：cmd i <in> <out>）计算掩码。
// 输入输出都走临时 PNG，任何退出路径上都会删除。
type CommandOracle struct {
	bin     string
	timeout time.Duration
}

// NewCommandOracle 在构造期做一次可用性检查；二进制不存在即返回错误，
// 调用方据此退化为纯阈值分割
func NewCommandOracle(bin string, timeout time.Duration) (*CommandOracle, error) {
	if bin == "" {
		return nil, fmt.Errorf("oracle binary not configured")
	}
	path, err := exec.LookPath(bin)
	if err != nil {
		return nil, fmt.Errorf("oracle binary %q not found: %w", bin, err)
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &CommandOracle{bin: path, timeout: timeout}, nil
}

// Mask 运行外部模型并取输出的 alpha 通道作掩码。
// 输出没有 alpha 时合成全不透明掩码。
func (o *CommandOracle) Mask(ctx context.Context, img *dvtypes.ImageBGR) (*image.Gray, error) {
	id := uuid.NewString()
	inPath := filepath.Join(os.TempDir(), "dv-oracle-"+id+"-in.png")
	outPath := filepath.Join(os.TempDir(), "dv-oracle-"+id+"-out.png")
	defer os.Remove(inPath)
	defer os.Remove(outPath)

	in, err := os.Create(inPath)
	if err != nil {
		return nil, fmt.Errorf("create oracle input: %w", err)
	}
	if err := png.Encode(in, imgio.FromBGR(img)); err != nil {
		in.Close()
		return nil, fmt.Errorf("encode oracle input: %w", err)
	}
	if err := in.Close(); err != nil {
		return nil, fmt.Errorf("close oracle input: %w", err)
	}

	cctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	// CommandContext 在超时/断连时杀掉进程而不是放任其泄漏
	cmd := exec.CommandContext(cctx, o.bin, "i", inPath, outPath)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("oracle command failed: %w (output: %s)", err, out)
	}

	f, err := os.Open(outPath)
	if err != nil {
		return nil, fmt.Errorf("open oracle output: %w", err)
	}
	defer f.Close()
	result, err := imgio.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode oracle output: %w", err)
	}
	if result.Bounds().Dx() != img.Width || result.Bounds().Dy() != img.Height {
		return nil, fmt.Errorf("oracle output size %dx%d does not match input %dx%d",
			result.Bounds().Dx(), result.Bounds().Dy(), img.Width, img.Height)
	}
	return imgio.AlphaMask(result), nil
}
