package parser

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"

	appErrors "github.com/noah-isme/notabilis-api/pkg/errors"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func readDelimited(data []byte) ([][]string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = sniffDelimiter(data)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = reader.Comma != '\t'

	var lines [][]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "malformed delimited text")
		}
		lines = append(lines, record)
	}
	return lines, nil
}

// sniffDelimiter picks the most frequent of comma, semicolon and tab on the header line.
func sniffDelimiter(data []byte) rune {
	header := data
	if idx := bytes.IndexByte(data, '\n'); idx >= 0 {
		header = data[:idx]
	}

	best, bestCount := ',', bytes.Count(header, []byte{','})
	for _, candidate := range []rune{';', '\t'} {
		if n := bytes.Count(header, []byte(string(candidate))); n > bestCount {
			best, bestCount = candidate, n
		}
	}
	return best
}
