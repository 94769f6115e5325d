package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/playwright-community/playwright-go"
)

// DefaultTimeout bounds a single render, including browser launch.
const DefaultTimeout = 45 * time.Second

// PlaywrightRenderer renders HTML to PDF with headless Chromium. Each call
// launches a fresh browser and tears it down afterwards, so a crashed or
// leaked page never poisons later renders.
type PlaywrightRenderer struct {
	timeout time.Duration
}

// NewPlaywrightRenderer creates a renderer. A non-positive timeout falls back
// to DefaultTimeout.
func NewPlaywrightRenderer(timeout time.Duration) *PlaywrightRenderer {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &PlaywrightRenderer{timeout: timeout}
}

// RenderPDF renders the HTML on an A4 landscape page with zero margins and
// backgrounds printed.
// PRE: html is a self-contained document (assets inlined as data URIs)
// POST: Returns non-empty PDF bytes, or an error; all browser resources are
// released regardless of outcome
func (r *PlaywrightRenderer) RenderPDF(ctx context.Context, html string) ([]byte, error) {
	if html == "" {
		return nil, errors.New("render: empty html")
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	started := time.Now()

	type result struct {
		pdf []byte
		err error
	}
	done := make(chan result, 1)

	// playwright-go calls block without taking a context, so the render runs
	// on its own goroutine and the timeout is enforced here.
	go func() {
		pdf, err := renderOnce(html, r.timeout)
		done <- result{pdf: pdf, err: err}
	}()

	select {
	case <-ctx.Done():
		slog.Error("render_timeout", "timeout", r.timeout)
		return nil, fmt.Errorf("render: %w", ctx.Err())
	case res := <-done:
		if res.err != nil {
			slog.Error("render_failed", "error", res.err)
			return nil, res.err
		}
		slog.Info("render_complete", "bytes", len(res.pdf), "duration_ms", time.Since(started).Milliseconds())
		return res.pdf, nil
	}
}

func renderOnce(html string, timeout time.Duration) ([]byte, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("render: start playwright: %w", err)
	}
	defer pw.Stop()

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
		Args:     []string{"--no-sandbox", "--disable-setuid-sandbox"},
	})
	if err != nil {
		return nil, fmt.Errorf("render: launch chromium: %w", err)
	}
	defer browser.Close()

	page, err := browser.NewPage()
	if err != nil {
		return nil, fmt.Errorf("render: new page: %w", err)
	}
	defer page.Close()

	// networkidle waits for the web fonts referenced by the certificate CSS.
	err = page.SetContent(html, playwright.PageSetContentOptions{
		WaitUntil: playwright.WaitUntilStateNetworkidle,
		Timeout:   playwright.Float(float64(timeout.Milliseconds())),
	})
	if err != nil {
		return nil, fmt.Errorf("render: set content: %w", err)
	}

	pdf, err := page.PDF(playwright.PagePdfOptions{
		Format:          playwright.String("A4"),
		Landscape:       playwright.Bool(true),
		PrintBackground: playwright.Bool(true),
		Margin: &playwright.Margin{
			Top:    playwright.String("0"),
			Bottom: playwright.String("0"),
			Left:   playwright.String("0"),
			Right:  playwright.String("0"),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("render: pdf: %w", err)
	}
	if len(pdf) == 0 {
		return nil, errors.New("render: chromium returned an empty document")
	}
	return pdf, nil
}
