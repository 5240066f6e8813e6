package parser

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	appErrors "github.com/noah-isme/notabilis-api/pkg/errors"
)

const (
	documentPart = "word/document.xml"
	wordMLSpace  = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
)

// readDocument extracts lines from a .docx body. Paragraphs outside tables are
// split on tabs; each table row yields one line with one cell per column.
func readDocument(data []byte) ([][]string, error) {
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "unreadable document")
	}

	var part *zip.File
	for _, f := range archive.File {
		if f.Name == documentPart {
			part = f
			break
		}
	}
	if part == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "document body missing")
	}

	rc, err := part.Open()
	if err != nil {
		return nil, fmt.Errorf("open document body: %w", err)
	}
	defer rc.Close() //nolint:errcheck

	lines, err := extractLines(rc)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "malformed document body")
	}
	return lines, nil
}

type documentWalker struct {
	lines [][]string

	tableDepth int
	inRun      bool
	inText     bool

	paragraph strings.Builder
	cell      strings.Builder
	cellParas int
	row       []string
}

func extractLines(r io.Reader) ([][]string, error) {
	decoder := xml.NewDecoder(r)
	w := &documentWalker{}
	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			return w.lines, nil
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space == wordMLSpace {
				w.start(t.Name.Local)
			}
		case xml.EndElement:
			if t.Name.Space == wordMLSpace {
				w.end(t.Name.Local)
			}
		case xml.CharData:
			if w.inText {
				w.write(string(t))
			}
		}
	}
}

func (w *documentWalker) start(name string) {
	switch name {
	case "tbl":
		w.tableDepth++
	case "tr":
		if w.tableDepth == 1 {
			w.row = w.row[:0]
		}
	case "tc":
		if w.tableDepth == 1 {
			w.cell.Reset()
			w.cellParas = 0
		}
	case "p":
		if w.tableDepth == 0 {
			w.paragraph.Reset()
		} else if w.tableDepth == 1 {
			if w.cellParas > 0 {
				w.cell.WriteByte(' ')
			}
			w.cellParas++
		}
	case "r":
		w.inRun = true
	case "t":
		w.inText = w.inRun
	case "tab":
		if w.inRun {
			w.write("\t")
		}
	case "br", "cr":
		if w.inRun {
			w.write("\n")
		}
	}
}

func (w *documentWalker) end(name string) {
	switch name {
	case "tbl":
		w.tableDepth--
	case "tr":
		if w.tableDepth == 1 {
			w.lines = append(w.lines, append([]string(nil), w.row...))
		}
	case "tc":
		if w.tableDepth == 1 {
			w.row = append(w.row, w.cell.String())
		}
	case "p":
		if w.tableDepth == 0 {
			for _, text := range strings.Split(w.paragraph.String(), "\n") {
				if strings.TrimSpace(text) != "" {
					w.lines = append(w.lines, strings.Split(text, "\t"))
				}
			}
		}
	case "r":
		w.inRun = false
	case "t":
		w.inText = false
	}
}

func (w *documentWalker) write(s string) {
	switch {
	case w.tableDepth == 0:
		w.paragraph.WriteString(s)
	case w.tableDepth == 1:
		if s == "\t" || s == "\n" {
			s = " "
		}
		w.cell.WriteString(s)
	}
}
