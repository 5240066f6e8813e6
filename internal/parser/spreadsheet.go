package parser

import (
	"bytes"

	"github.com/xuri/excelize/v2"

	appErrors "github.com/noah-isme/notabilis-api/pkg/errors"
)

// readSpreadsheet returns the rows of the first worksheet.
func readSpreadsheet(data []byte) ([][]string, error) {
	book, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "unreadable spreadsheet")
	}
	defer book.Close() //nolint:errcheck

	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "spreadsheet has no worksheet")
	}
	rows, err := book.GetRows(sheets[0])
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "unreadable worksheet")
	}
	return rows, nil
}
