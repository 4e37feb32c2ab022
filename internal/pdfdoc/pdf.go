// Package pdfdoc wraps the PDF libraries behind the few calls the pipeline
// needs: outline, page count, and per-page text, images and tables.
package pdfdoc

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	pdflib "github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/dgallion1/spectoc/internal/doctree"
)

var (
	// ErrNoOutline is returned when the document carries no bookmarks at all.
	ErrNoOutline = errors.New("pdf has no outline")
	// ErrPageOutOfRange is returned for page numbers outside 1..PageCount.
	ErrPageOutOfRange = errors.New("page out of range")
)

// Options controls what Open reads up front.
type Options struct {
	// ExtractMedia enables image metadata and table detection.
	ExtractMedia bool
	Log          *slog.Logger
}

// Document is an open PDF. Page accessors are safe for concurrent use once
// Open has returned: text is read through io.ReaderAt and images are indexed
// during Open.
type Document struct {
	path      string
	file      *os.File
	reader    *pdflib.Reader
	bookmarks []doctree.Bookmark
	images    map[int][]doctree.ImageInfo
	media     bool
	log       *slog.Logger
}

// Open opens path, reads its outline and, with ExtractMedia, indexes its
// images. The caller must Close the document.
func Open(path string, opts Options) (*Document, error) {
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}

	f, r, err := pdflib.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", path, err)
	}

	doc := &Document{
		path:   path,
		file:   f,
		reader: r,
		media:  opts.ExtractMedia,
		log:    log.With("pdf", path),
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	bms, err := readBookmarks(f, conf)
	if err != nil {
		f.Close()
		return nil, err
	}
	doc.bookmarks = bms

	if opts.ExtractMedia {
		doc.images = readImages(f, conf, doc.log)
	}

	return doc, nil
}

// Close releases the underlying file.
func (d *Document) Close() error {
	return d.file.Close()
}

// Path returns the file the document was opened from.
func (d *Document) Path() string {
	return d.path
}

// PageCount returns the number of pages.
func (d *Document) PageCount() int {
	return d.reader.NumPage()
}

// Bookmarks returns the flattened outline in pre-order.
func (d *Document) Bookmarks() []doctree.Bookmark {
	return d.bookmarks
}

// PageText returns the plain text of a 1-based page. Decoder panics on
// malformed content streams are turned into errors.
func (d *Document) PageText(n int) (text string, err error) {
	if n < 1 || n > d.PageCount() {
		return "", fmt.Errorf("page %d: %w", n, ErrPageOutOfRange)
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("page %d: decode panic: %v", n, r)
		}
	}()

	page := d.reader.Page(n)
	if page.V.IsNull() {
		return "", nil
	}
	text, err = page.GetPlainText(nil)
	if err != nil {
		return "", fmt.Errorf("page %d: %w", n, err)
	}
	return text, nil
}

// PageImages returns image descriptors for a page, in object order.
func (d *Document) PageImages(n int) ([]doctree.ImageInfo, error) {
	if !d.media {
		return nil, nil
	}
	return d.images[n], nil
}

// PageTables detects table-like blocks from the page's text layout.
func (d *Document) PageTables(n int) (tables []doctree.TableInfo, err error) {
	if !d.media {
		return nil, nil
	}
	if n < 1 || n > d.PageCount() {
		return nil, fmt.Errorf("page %d: %w", n, ErrPageOutOfRange)
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("page %d: layout panic: %v", n, r)
		}
	}()

	page := d.reader.Page(n)
	if page.V.IsNull() {
		return nil, nil
	}
	rows, err := page.GetTextByRow()
	if err != nil {
		return nil, fmt.Errorf("page %d rows: %w", n, err)
	}

	layout := make([]Row, 0, len(rows))
	for _, row := range rows {
		var r Row
		for _, t := range row.Content {
			r.Texts = append(r.Texts, Text{X: t.X, W: t.W, FontSize: t.FontSize, S: t.S})
		}
		layout = append(layout, r)
	}
	return DetectTables(n, layout), nil
}

func readBookmarks(f *os.File, conf *model.Configuration) ([]doctree.Bookmark, error) {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind pdf: %w", err)
	}
	bms, err := api.Bookmarks(f, conf)
	if err != nil {
		return nil, fmt.Errorf("read bookmarks: %w", err)
	}

	var out []doctree.Bookmark
	flatten(bms, 1, &out)
	if len(out) == 0 {
		return nil, ErrNoOutline
	}
	return out, nil
}

func flatten(bms []pdfcpu.Bookmark, level int, out *[]doctree.Bookmark) {
	for _, bm := range bms {
		*out = append(*out, doctree.Bookmark{
			Level: level,
			Title: strings.TrimSpace(bm.Title),
			Page:  bm.PageFrom,
		})
		flatten(bm.Kids, level+1, out)
	}
}

// readImages indexes image XObjects by page. Failures only cost the metadata.
func readImages(f *os.File, conf *model.Configuration, log *slog.Logger) map[int][]doctree.ImageInfo {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		log.Warn("image scan skipped", "error", err)
		return nil
	}
	pages, err := api.Images(f, nil, conf)
	if err != nil {
		log.Warn("image scan failed", "error", err)
		return nil
	}

	byPage := make(map[int][]model.Image)
	for _, m := range pages {
		for _, img := range m {
			byPage[img.PageNr] = append(byPage[img.PageNr], img)
		}
	}

	out := make(map[int][]doctree.ImageInfo, len(byPage))
	for pageNr, imgs := range byPage {
		sort.Slice(imgs, func(i, j int) bool { return imgs[i].ObjNr < imgs[j].ObjNr })
		infos := make([]doctree.ImageInfo, 0, len(imgs))
		for i, img := range imgs {
			cs := img.Cs
			if cs == "" {
				cs = "Unknown"
			}
			infos = append(infos, doctree.ImageInfo{
				Page:       pageNr,
				Index:      i,
				Width:      img.Width,
				Height:     img.Height,
				Colorspace: cs,
			})
		}
		out[pageNr] = infos
	}
	return out
}
