package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ludo-technologies/pytree/domain"
	"github.com/ludo-technologies/pytree/internal/parser"
	"github.com/ludo-technologies/pytree/internal/render"
)

// TreeRenderServiceImpl implements domain.TreeRenderer with PNG output
type TreeRenderServiceImpl struct {
	style  render.Style
	logger *slog.Logger // nil means slog.Default()
}

// NewTreeRenderService creates a renderer using the default drawing style
func NewTreeRenderService() *TreeRenderServiceImpl {
	return &TreeRenderServiceImpl{style: render.DefaultStyle()}
}

func (s *TreeRenderServiceImpl) log() *slog.Logger {
	if s.logger != nil {
		return s.logger
	}
	return slog.Default()
}

// Render draws the parse tree of file and writes it into req.OutputDir.
// The image is written to a temporary file first, so a failed render
// never leaves a partial image behind.
func (s *TreeRenderServiceImpl) Render(ctx context.Context, file *domain.ParsedFile, req domain.RenderRequest) (imagePath string, err error) {
	if file == nil {
		return "", domain.NewRenderError("", fmt.Errorf("no parsed file"))
	}
	defer func() {
		if r := recover(); r != nil {
			imagePath = ""
			err = domain.NewRenderError(file.Path, fmt.Errorf("renderer panic: %v", r))
		}
	}()

	if err := ctx.Err(); err != nil {
		return "", domain.NewRenderError(file.Path, err)
	}

	result, ok := file.Tree.(*parser.ParseResult)
	if !ok || result == nil {
		return "", domain.NewRenderError(file.Path, fmt.Errorf("no parse tree available"))
	}

	style := s.style
	style.Scale = req.Scale
	style.MaxPixels = req.MaxPixels

	rendered, err := render.Render(parser.BuildLabelTree(result), style)
	if err != nil {
		return "", domain.NewRenderError(file.Path, err)
	}
	if rendered.Reduced() {
		b := rendered.Image.Bounds()
		s.log().Warn("tree image scaled down to fit the pixel limit",
			"file", file.Path,
			"scale", rendered.Scale,
			"requested_scale", rendered.Requested,
			"width", b.Dx(),
			"height", b.Dy(),
			"max_pixels", req.MaxPixels)
	}

	outPath := ImagePath(req, file.Path)
	dir := filepath.Dir(outPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", domain.NewRenderError(file.Path, err)
	}

	tmp, err := os.CreateTemp(dir, ".pytree-*.png")
	if err != nil {
		return "", domain.NewRenderError(file.Path, err)
	}
	tmpName := tmp.Name()

	if err := render.WritePNG(tmp, rendered.Image); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", domain.NewRenderError(file.Path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", domain.NewRenderError(file.Path, err)
	}
	if err := os.Rename(tmpName, outPath); err != nil {
		os.Remove(tmpName)
		return "", domain.NewRenderError(file.Path, err)
	}

	return outPath, nil
}

// ImagePath derives the image location for sourcePath: the source suffix of
// the base name is replaced by the image suffix. With MirrorLayout the
// directory of sourcePath relative to req.Root is kept under req.OutputDir.
func ImagePath(req domain.RenderRequest, sourcePath string) string {
	name := filepath.Base(sourcePath)
	if req.SourceSuffix != "" {
		name = strings.TrimSuffix(name, req.SourceSuffix)
	}
	name += req.ImageSuffix

	if req.MirrorLayout && req.Root != "" {
		rel, err := filepath.Rel(req.Root, filepath.Dir(sourcePath))
		if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return filepath.Join(req.OutputDir, rel, name)
		}
	}
	return filepath.Join(req.OutputDir, name)
}
