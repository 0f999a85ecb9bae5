// Package receipt turns a receipt image and print options into printer
// operations on a connected session.
package receipt

import (
	"encoding/json"
	"errors"
	"strings"
)

// Options configures one print job
type Options struct {
	Copies         int    `json:"copies"`
	PaperSize      string `json:"paperSize"`
	CutPaper       bool   `json:"cutPaper"`
	OpenCashDrawer bool   `json:"openCashDrawer"`
	DPI            int    `json:"dpi"`
}

// DefaultOptions returns one cut copy on 80 mm paper at 203 dpi
func DefaultOptions() Options {
	return Options{
		Copies:         1,
		PaperSize:      "80mm",
		CutPaper:       true,
		OpenCashDrawer: false,
		DPI:            203,
	}
}

// ParseOptions decodes a JSON options object over the defaults. It never
// fails: missing or mistyped fields keep their default and malformed
// input yields the defaults. The returned error only describes what was
// ignored.
func ParseOptions(raw string) (Options, error) {
	opts := DefaultOptions()
	if strings.TrimSpace(raw) == "" {
		return opts, nil
	}

	if err := json.Unmarshal([]byte(raw), &opts); err != nil {
		var typeErr *json.UnmarshalTypeError
		if !errors.As(err, &typeErr) {
			// a syntax error leaves nothing decoded
			return DefaultOptions(), err
		}
		return opts, err
	}
	return opts, nil
}
