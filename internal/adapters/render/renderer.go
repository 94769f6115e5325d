// Package render turns certificate HTML into PDF bytes using a headless browser.
package render

import "context"

// Renderer produces a PDF document from a self-contained HTML page.
type Renderer interface {
	// RenderPDF renders the given HTML and returns the PDF bytes.
	RenderPDF(ctx context.Context, html string) ([]byte, error)
}
