package rowparser

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/shivamverma1605/image-processor-service/internal/domain"
)

const (
	colProductName = "Product Name"
	colInputURLs   = "Input Image Urls"
)

// Row is one validated data row of a submission.
type Row struct {
	ProductName    string   `validate:"required"`
	InputImageURLs []string `validate:"min=1,dive,required"`
}

var validate = validator.New()

// Parse reads CSV text with a header row and returns its data rows in order.
// The header must carry "Product Name" and "Input Image Urls" columns; any
// other columns (e.g. "S. No.") are ignored. All failures wrap
// domain.ErrMalformedInput.
func Parse(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: missing header row", domain.ErrMalformedInput)
	}

	nameIdx, urlIdx := -1, -1
	for i, col := range header {
		switch strings.TrimSpace(col) {
		case colProductName:
			nameIdx = i
		case colInputURLs:
			urlIdx = i
		}
	}
	if nameIdx < 0 || urlIdx < 0 {
		return nil, fmt.Errorf("%w: header must contain %q and %q columns",
			domain.ErrMalformedInput, colProductName, colInputURLs)
	}

	var rows []Row
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// csv.Reader reports rows whose column count differs from
			// the header's as ErrFieldCount.
			return nil, fmt.Errorf("%w: line %d: %v", domain.ErrMalformedInput, line, err)
		}

		row := Row{
			ProductName:    strings.TrimSpace(rec[nameIdx]),
			InputImageURLs: splitURLs(rec[urlIdx]),
		}
		if err := validate.Struct(row); err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", domain.ErrMalformedInput, line, err)
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no data rows", domain.ErrMalformedInput)
	}
	return rows, nil
}

// splitURLs splits a comma-separated URL field and trims each entry. Empty
// entries are kept so validation can reject them.
func splitURLs(field string) []string {
	parts := strings.Split(field, ",")
	urls := make([]string, len(parts))
	for i, p := range parts {
		urls[i] = strings.TrimSpace(p)
	}
	return urls
}
