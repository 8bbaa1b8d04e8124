package vectorize

import (
	"encoding/xml"
	"strings"

	rsvg "github.com/rustyoz/svg"
)

// tracedPath 描边引擎输出中的一条路径几何
type tracedPath struct {
	D string
}

// extractPaths 丢掉引擎自己的文档外壳，只取路径几何。
// 先整体解析确认文档良构，再逐 token 收集任意深度上的 <path>。
func extractPaths(svgData string) []tracedPath {
	if svgData == "" {
		return nil
	}
	if _, err := rsvg.ParseSvg(svgData, "trace", 1.0); err != nil {
		return nil
	}

	dec := xml.NewDecoder(strings.NewReader(svgData))
	var paths []tracedPath
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "path" {
			continue
		}
		for _, attr := range start.Attr {
			if attr.Name.Local == "d" && attr.Value != "" {
				paths = append(paths, tracedPath{D: attr.Value})
				break
			}
		}
	}
	return paths
}
