package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"resume-builder/internal/model"
	"resume-builder/internal/render"

	"go.uber.org/zap"
)

// PreviewSelector is the element every template renders as its root.
const PreviewSelector = "#resume-preview"

// RasterScale is the device scale factor used when capturing the preview.
const RasterScale = 2

// Surface turns rendered HTML into a bitmap and the bitmap into a document.
type Surface interface {
	Rasterize(ctx context.Context, html, selector string, scale float64) ([]byte, error)
	PaginateImage(ctx context.Context, png []byte) ([]byte, error)
}

// ArtifactArchive stores copies of exported documents.
type ArtifactArchive interface {
	Put(ctx context.Context, key string, data []byte) error
}

type Artifact struct {
	FileName   string
	PDF        []byte
	Template   render.Template
	CreatedAt  time.Time
	ArchiveKey string
}

type Exporter struct {
	renderer *render.Renderer
	surface  Surface
	archive  ArtifactArchive
	logger   *zap.Logger
	metrics  Metrics
	now      func() time.Time
}

// NewExporter wires the export pipeline; archive may be nil.
func NewExporter(renderer *render.Renderer, surface Surface, archive ArtifactArchive, logger *zap.Logger, metrics Metrics) *Exporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = NopMetrics{}
	}
	return &Exporter{renderer: renderer, surface: surface, archive: archive, logger: logger, metrics: metrics, now: time.Now}
}

// ExportFileName joins the words of fullName with underscores.
func ExportFileName(fullName string) string {
	words := strings.Fields(fullName)
	if len(words) == 0 {
		return "Curriculo_CV.pdf"
	}
	return strings.Join(words, "_") + "_CV.pdf"
}

// Export renders doc with template t and produces a single-page A4 PDF.
func (e *Exporter) Export(ctx context.Context, t render.Template, doc model.Resume) (*Artifact, error) {
	html, err := e.renderer.Render(t, doc)
	if err != nil {
		e.metrics.ExportResult("error")
		return nil, err
	}
	png, err := e.surface.Rasterize(ctx, html, PreviewSelector, RasterScale)
	if err != nil {
		e.metrics.ExportResult("error")
		return nil, fmt.Errorf("rasterize preview: %w", err)
	}
	pdf, err := e.surface.PaginateImage(ctx, png)
	if err != nil {
		e.metrics.ExportResult("error")
		return nil, fmt.Errorf("build pdf: %w", err)
	}

	art := &Artifact{
		FileName:  ExportFileName(doc.PersonalInfo.FullName),
		PDF:       pdf,
		Template:  t,
		CreatedAt: e.now().UTC(),
	}
	if e.archive != nil {
		key := fmt.Sprintf("exports/%s/%s", art.CreatedAt.Format("2006/01/02/150405"), art.FileName)
		if err := e.archive.Put(ctx, key, pdf); err != nil {
			e.logger.Warn("export archive failed", zap.String("key", key), zap.Error(err))
		} else {
			art.ArchiveKey = key
		}
	}
	e.metrics.ExportResult("ok")
	e.logger.Info("resume exported", zap.String("template", string(t)), zap.String("file", art.FileName), zap.Int("bytes", len(pdf)))
	return art, nil
}
