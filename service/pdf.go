package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/R01085B-Limaylla/webContratos/config"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// Rasterizer turns a contract document into PDF bytes
type Rasterizer interface {
	Render(ctx context.Context, html string, opts RenderOptions) ([]byte, error)
}

// RenderOptions controls one rasterization
type RenderOptions struct {
	Scale    float64
	PageSize string // A4, letter, legal
}

// ScaleForViewport picks the render scale for the requesting device width.
// Small screens get a lower scale; zero means unknown and renders at full
// scale.
func ScaleForViewport(width int) float64 {
	switch {
	case width <= 0:
		return 2
	case width <= 390:
		return 1.25
	case width <= 480:
		return 1.5
	}
	return 2
}

// paperSize returns width and height in inches
func paperSize(name string) (float64, float64) {
	switch strings.ToLower(name) {
	case "letter":
		return 8.5, 11
	case "legal":
		return 8.5, 14
	}
	return 8.27, 11.69
}

// ChromeRasterizer prints documents with a headless Chrome
type ChromeRasterizer struct {
	chromePath string
	pageSize   string
	timeout    time.Duration
}

func NewChromeRasterizer(cfg *config.RendererConfig) *ChromeRasterizer {
	return &ChromeRasterizer{
		chromePath: cfg.ChromePath,
		pageSize:   cfg.PageSize,
		timeout:    time.Duration(cfg.TimeoutSeconds) * time.Second,
	}
}

// Render starts a fresh browser per document
func (r *ChromeRasterizer) Render(ctx context.Context, html string, opts RenderOptions) ([]byte, error) {
	if opts.Scale <= 0 {
		opts.Scale = ScaleForViewport(0)
	}
	if opts.PageSize == "" {
		opts.PageSize = r.pageSize
	}
	width, height := paperSize(opts.PageSize)

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.DisableGPU,
	)
	if r.chromePath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(r.chromePath))
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer allocCancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	var pdf []byte
	err := chromedp.Run(browserCtx,
		chromedp.EmulateViewport(int64(width*96), int64(height*96), chromedp.EmulateScale(opts.Scale)),
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, html).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().
				WithPaperWidth(width).
				WithPaperHeight(height).
				WithMarginTop(0).
				WithMarginBottom(0).
				WithMarginLeft(0).
				WithMarginRight(0).
				WithPrintBackground(true).
				WithPreferCSSPageSize(true).
				Do(ctx)
			if err != nil {
				return err
			}
			pdf = buf
			return nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return pdf, nil
}
