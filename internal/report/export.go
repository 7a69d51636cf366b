package report

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/worktracker75-ui/datanav/internal/utils"
)

// RenderError reports a failed report export. No file is left behind when
// it is returned.
type RenderError struct {
	Stage string
	Err   error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("report %s failed: %v", e.Stage, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// Filename is the export name for a report generated at t.
func Filename(t time.Time) string {
	return "report-" + t.Format("20060102-150405") + ".pdf"
}

// Compose builds the pages for in. A panic during layout is returned as a
// RenderError.
func Compose(in Input, l Layout) ([]Page, error) {
	return safely(func() []Page { return Build(in, l) })
}

func safely(build func() []Page) (pages []Page, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = &RenderError{Stage: "compose", Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	return build(), nil
}

// Render composes in and encodes it as a PDF in memory.
func Render(in Input, l Layout) ([]byte, int, error) {
	pages, err := Compose(in, l)
	if err != nil {
		return nil, 0, err
	}
	var buf bytes.Buffer
	if err := WritePDF(&buf, pages, l); err != nil {
		return nil, 0, &RenderError{Stage: "pdf", Err: err}
	}
	return buf.Bytes(), len(pages), nil
}

// Export writes the report PDF into dir and returns its path.
func Export(dir string, in Input) (string, error) {
	data, _, err := Render(in, A4)
	if err != nil {
		return "", err
	}
	if err := utils.EnsureDir(dir); err != nil {
		return "", &RenderError{Stage: "write", Err: err}
	}
	path := filepath.Join(dir, Filename(in.Generated))
	if err := writeFile(path, data); err != nil {
		return "", &RenderError{Stage: "write", Err: err}
	}
	return path, nil
}

// ExportPNG writes one PNG per page next to where the PDF would go, named
// report-<timestamp>-p<N>.png, and returns the paths. Every page is encoded
// before anything is written, and a failed write removes the pages already
// on disk.
func ExportPNG(dir string, in Input) ([]string, error) {
	pages, err := Compose(in, A4)
	if err != nil {
		return nil, err
	}
	images := make([][]byte, len(pages))
	for i, p := range pages {
		var buf bytes.Buffer
		if err := WritePNG(&buf, p, A4); err != nil {
			return nil, &RenderError{Stage: "png", Err: err}
		}
		images[i] = buf.Bytes()
	}
	if err := utils.EnsureDir(dir); err != nil {
		return nil, &RenderError{Stage: "write", Err: err}
	}
	base := strings.TrimSuffix(Filename(in.Generated), ".pdf")
	paths := make([]string, 0, len(pages))
	for i, p := range pages {
		path := filepath.Join(dir, fmt.Sprintf("%s-p%d.png", base, p.Index+1))
		if err := writeFile(path, images[i]); err != nil {
			for _, written := range paths {
				_ = os.Remove(written)
			}
			return nil, &RenderError{Stage: "write", Err: err}
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// writeFile is swapped in tests to simulate a failing disk.
var writeFile = utils.SafeWriteFile
