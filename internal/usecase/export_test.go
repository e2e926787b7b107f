package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"resume-builder/internal/model"
	"resume-builder/internal/render"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportFileName(t *testing.T) {
	tests := map[string]string{
		"Ana Souza":          "Ana_Souza_CV.pdf",
		"  Ana   de  Souza ": "Ana_de_Souza_CV.pdf",
		"":                   "Curriculo_CV.pdf",
		"   ":                "Curriculo_CV.pdf",
	}
	for in, want := range tests {
		assert.Equal(t, want, ExportFileName(in), "input %q", in)
	}
}

func newTestExporter(t *testing.T, surface Surface, archive ArtifactArchive) *Exporter {
	t.Helper()
	r, err := render.New()
	require.NoError(t, err)
	return NewExporter(r, surface, archive, nil, nil)
}

func TestExporter_Export(t *testing.T) {
	surface := &fakeSurface{}
	archive := &memArchive{}
	e := newTestExporter(t, surface, archive)

	art, err := e.Export(context.Background(), render.Classic, resumeNamed("Ana Souza"))
	require.NoError(t, err)

	assert.Equal(t, "Ana_Souza_CV.pdf", art.FileName)
	assert.Equal(t, []byte("%PDF-PNG"), art.PDF)
	assert.Equal(t, PreviewSelector, surface.selector)
	assert.Equal(t, float64(RasterScale), surface.scale)
	assert.True(t, strings.Contains(surface.html, `id="resume-preview"`))
	require.NotEmpty(t, art.ArchiveKey)
	assert.Equal(t, art.PDF, archive.keys[art.ArchiveKey])
}

func TestExporter_SurfaceFailure(t *testing.T) {
	e := newTestExporter(t, &fakeSurface{rasterErr: errors.New("no chrome")}, nil)
	_, err := e.Export(context.Background(), render.Modern, model.Empty())
	assert.ErrorContains(t, err, "no chrome")
}

func TestExporter_UnknownTemplate(t *testing.T) {
	surface := &fakeSurface{}
	e := newTestExporter(t, surface, nil)
	_, err := e.Export(context.Background(), render.Template("fancy"), model.Empty())
	assert.Error(t, err)
	assert.Zero(t, surface.calls)
}
