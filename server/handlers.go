package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"drawvec/imgio"
	"drawvec/pipeline"
	dvtypes "drawvec/type"
)

var allowedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
}

type processResponse struct {
	Success        bool               `json:"success"`
	SVG            string             `json:"svg"`
	Colors         []dvtypes.ColorInfo `json:"colors"`
	OriginalSize   dvtypes.Size       `json:"originalSize"`
	ProcessedSize  dvtypes.Size       `json:"processedSize"`
	ProcessingTime float64            `json:"processingTime"`
	Metadata       processMetadata    `json:"metadata"`
}

type processMetadata struct {
	ColorCount  int    `json:"colorCount"`
	RegionCount int    `json:"regionCount"`
	Style       string `json:"style"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "ok",
		"service":  "drawvec",
		"pipeline": "color-preserving",
	})
}

// handleProcess 边界校验都在进流水线之前完成；
// 校验失败一律 400，流水线失败一律 500
func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxFileSize+1<<20)

	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No image file provided", "")
		return
	}
	defer file.Close()

	if header.Filename == "" {
		writeError(w, http.StatusBadRequest, "No file selected", "")
		return
	}
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedExtensions[ext] {
		writeError(w, http.StatusBadRequest, "Invalid file type. Allowed: PNG, JPG, JPEG, WebP", "")
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, s.maxFileSize+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read uploaded file", "")
		return
	}
	if int64(len(data)) > s.maxFileSize {
		writeError(w, http.StatusBadRequest,
			"File too large. Maximum size: "+strconv.FormatInt(s.maxFileSize/1024/1024, 10)+"MB", "")
		return
	}

	opts := parseOptions(r)

	img, err := imgio.DecodeBytes(data)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Unsupported or corrupt image data", "")
		return
	}

	result, err := s.processor.Process(r.Context(), img, opts)
	if err != nil {
		s.writePipelineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, processResponse{
		Success:        true,
		SVG:            result.SVG,
		Colors:         result.Colors,
		OriginalSize:   result.OriginalSize,
		ProcessedSize:  result.ProcessedSize,
		ProcessingTime: result.ProcessingTime,
		Metadata: processMetadata{
			ColorCount:  len(result.Colors),
			RegionCount: result.RegionCount,
			Style:       styleLabel(opts.PreserveStyle),
		},
	})
}

// handleVariants 多变体生成的预留端点
func (s *Server) handleVariants(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusNotImplemented, "Variants endpoint not yet implemented", "")
}

func parseOptions(r *http.Request) pipeline.Options {
	colorCount := 5
	if v := r.FormValue("colorCount"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			colorCount = n
		}
	}
	return pipeline.Options{
		ColorCount:    colorCount,
		PreserveStyle: formBool(r, "preserveStyle", true),
		UseAI:         formBool(r, "useAI", true),
	}
}

func formBool(r *http.Request, key string, def bool) bool {
	v := r.FormValue(key)
	if v == "" {
		return def
	}
	return strings.EqualFold(v, "true")
}

// writePipelineError 按错误分类挑选对外文案；
// 未知错误附带描述，完整细节只进服务端日志
func (s *Server) writePipelineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, pipeline.ErrEmptyPalette):
		writeError(w, http.StatusInternalServerError, "Failed to extract colors from image", "")
	case errors.Is(err, pipeline.ErrNoRegions):
		writeError(w, http.StatusInternalServerError, "Failed to segment image into color regions", "")
	case errors.Is(err, pipeline.ErrEmptyDocument):
		writeError(w, http.StatusInternalServerError, "Vectorization failed or produced empty result", "")
	default:
		s.log.Error("unexpected pipeline error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to process image", err.Error())
	}
}

func styleLabel(preserveStyle bool) string {
	if preserveStyle {
		return "authentic"
	}
	return "clean"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, errMsg, message string) {
	writeJSON(w, status, errorResponse{Success: false, Error: errMsg, Message: message})
}
