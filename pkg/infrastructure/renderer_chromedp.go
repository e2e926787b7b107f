package infrastructure

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// ChromedpSurface captures rendered templates with headless Chrome.
type ChromedpSurface struct {
	ChromePath string
	Timeout    time.Duration
}

func NewChromedpSurface(chromePath string) *ChromedpSurface {
	return &ChromedpSurface{ChromePath: chromePath, Timeout: 60 * time.Second}
}

// run starts a browser, loads html from a temp file and runs actions.
func (s *ChromedpSurface) run(ctx context.Context, html string, actions ...chromedp.Action) error {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if s.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(s.ChromePath))
	}

	allocCtx, cancel := chromedp.NewExecAllocator(ctx, opts...)
	defer cancel()

	cctx, cancelCtx := chromedp.NewContext(allocCtx)
	defer cancelCtx()

	ctx2, cancel2 := context.WithTimeout(cctx, s.Timeout)
	defer cancel2()

	tmpDir, err := os.MkdirTemp("", "resume-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(tmpDir)

	htmlPath := filepath.Join(tmpDir, "index.html")
	if err := os.WriteFile(htmlPath, []byte(html), 0o644); err != nil {
		return err
	}

	steps := append([]chromedp.Action{
		chromedp.EmulateViewport(1240, 1754),
		chromedp.Navigate("file://" + htmlPath),
		chromedp.WaitReady("body", chromedp.ByQuery),
	}, actions...)
	return chromedp.Run(ctx2, steps...)
}

// Rasterize screenshots the element matched by selector at the given scale.
func (s *ChromedpSurface) Rasterize(ctx context.Context, html, selector string, scale float64) ([]byte, error) {
	var png []byte
	err := s.run(ctx, html,
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.ScreenshotScale(selector, scale, &png, chromedp.ByQuery),
	)
	if err != nil {
		return nil, fmt.Errorf("chromedp screenshot: %w", err)
	}
	return png, nil
}

const a4Page = `<!DOCTYPE html><html><head><meta charset="utf-8"><style>
@page { size: A4; margin: 0; }
html, body { margin: 0; padding: 0; }
img { display: block; width: 210mm; }
</style></head><body><img src="data:image/png;base64,%s"></body></html>`

// PaginateImage places the image at full page width on a single A4 page.
// Content taller than one page is cut off.
func (s *ChromedpSurface) PaginateImage(ctx context.Context, png []byte) ([]byte, error) {
	html := fmt.Sprintf(a4Page, base64.StdEncoding.EncodeToString(png))
	var pdfBuf []byte
	err := s.run(ctx, html,
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			// A4: 210mm x 297mm -> inches: 8.27 x 11.69
			pdfBuf, _, err = page.PrintToPDF().WithPrintBackground(true).
				WithPaperWidth(8.27).
				WithPaperHeight(11.69).
				WithMarginTop(0).
				WithMarginBottom(0).
				WithMarginLeft(0).
				WithMarginRight(0).
				WithPageRanges("1").
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("chromedp print: %w", err)
	}
	return pdfBuf, nil
}
