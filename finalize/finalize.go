// Package finalize 实现阶段 5：元数据注入与预留的后处理扩展点。
package finalize

import (
	"fmt"
	"strings"

	dvtypes "drawvec/type"
)

// OptimizePaths 路径简化的扩展点，当前原样透传
func OptimizePaths(svgContent string) string {
	return svgContent
}

// OrganizeLayers 图层重组的扩展点，当前原样透传
func OrganizeLayers(svgContent string) string {
	return svgContent
}

// AddMetadata 在根标签之后插入不参与渲染的注释块：
// 调色板、颜色数、原始尺寸、风格标签与耗时（保留两位小数）
func AddMetadata(svgContent string, colors []dvtypes.ColorInfo, originalSize dvtypes.Size, info dvtypes.ProcessingInfo) string {
	open := strings.Index(svgContent, "<svg")
	if open < 0 {
		return svgContent
	}
	end := strings.Index(svgContent[open:], ">")
	if end < 0 {
		return svgContent
	}
	end += open + 1

	hexes := make([]string, len(colors))
	for i, c := range colors {
		hexes[i] = c.Hex
	}
	meta := fmt.Sprintf(`<!--
    Metadata:
    - Colors: %s
    - Color Count: %d
    - Original Size: %dx%d
    - Style: %s
    - Processing Time: %.2fs
-->`, strings.Join(hexes, ", "), len(colors),
		originalSize.Width, originalSize.Height,
		info.Style, info.ProcessingTime)

	return svgContent[:end] + "\n" + meta + svgContent[end:]
}

// Finalize 依次跑过各后处理段；优化与重组目前都是空操作，
// 保留阶段本身是为了以后不动调用方就能加实现
func Finalize(svgContent string, colors []dvtypes.ColorInfo, originalSize dvtypes.Size, info dvtypes.ProcessingInfo) string {
	out := OptimizePaths(svgContent)
	out = OrganizeLayers(out)
	return AddMetadata(out, colors, originalSize, info)
}
