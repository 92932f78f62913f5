// Package pdf prints rendered resume HTML to A4 PDF with a headless browser
// and reads the text back for verification.
package pdf

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

const mmPerInch = 25.4

// PageSize describes the paper in millimetres.
type PageSize struct {
	WidthMM  float64
	HeightMM float64
}

// A4 is the only paper format exports use.
var A4 = PageSize{WidthMM: 210, HeightMM: 297}

// Output is the result of one print run.
type Output struct {
	PDF       []byte
	Thumbnail []byte
}

// Printer prints HTML documents.
type Printer interface {
	Print(ctx context.Context, html string, size PageSize) (Output, error)
}

// RodPrinter 每次打印启动一个独立的无头 Chromium，打印完即清理。
type RodPrinter struct {
	Timeout          time.Duration
	ThumbnailQuality int
}

// NewRodPrinter returns a printer with the given per-document timeout.
func NewRodPrinter(timeout time.Duration) *RodPrinter {
	return &RodPrinter{Timeout: timeout, ThumbnailQuality: 80}
}

// Print loads html into a blank page, waits for fonts, prints with CSS page size
// preferred and captures a JPEG thumbnail of the first screen.
func (p *RodPrinter) Print(ctx context.Context, html string, size PageSize) (Output, error) {
	launch := launcher.New().
		Headless(true).
		NoSandbox(true).
		Context(ctx)

	if path, ok := launcher.LookPath(); ok {
		launch = launch.Bin(path)
	}

	browserURL, err := launch.Launch()
	if err != nil {
		return Output{}, fmt.Errorf("launch chromium: %w", err)
	}
	defer launch.Cleanup()

	browser := rod.New().ControlURL(browserURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return Output{}, fmt.Errorf("connect browser: %w", err)
	}
	defer func() {
		_ = browser.Close()
	}()

	page, err := browser.Timeout(p.Timeout).Page(proto.TargetCreateTarget{})
	if err != nil {
		return Output{}, fmt.Errorf("create page: %w", err)
	}
	defer func() {
		_ = page.Close()
	}()

	page = page.Timeout(p.Timeout)
	if err := page.SetDocumentContent(html); err != nil {
		return Output{}, fmt.Errorf("set document content: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return Output{}, fmt.Errorf("wait load: %w", err)
	}
	if _, err := page.Eval(`() => document.fonts ? document.fonts.ready.then(() => true) : true`); err != nil {
		return Output{}, fmt.Errorf("wait fonts: %w", err)
	}

	thumb, err := page.Screenshot(false, &proto.PageCaptureScreenshot{
		Format:  proto.PageCaptureScreenshotFormatJpeg,
		Quality: &p.ThumbnailQuality,
	})
	if err != nil {
		return Output{}, fmt.Errorf("capture thumbnail: %w", err)
	}

	if err := (proto.EmulationSetEmulatedMedia{Media: "print"}).Call(page); err != nil {
		return Output{}, fmt.Errorf("set emulated media to print: %w", err)
	}

	width := size.WidthMM / mmPerInch
	height := size.HeightMM / mmPerInch
	reader, err := page.PDF(&proto.PagePrintToPDF{
		PrintBackground:   true,
		PaperWidth:        &width,
		PaperHeight:       &height,
		PreferCSSPageSize: true,
	})
	if err != nil {
		return Output{}, fmt.Errorf("export pdf: %w", err)
	}
	defer func() {
		_ = reader.Close()
	}()

	data, err := io.ReadAll(reader)
	if err != nil {
		return Output{}, fmt.Errorf("read pdf bytes: %w", err)
	}

	return Output{PDF: data, Thumbnail: thumb}, nil
}
