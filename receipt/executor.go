package receipt

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/nixxel-company-limited/receipt-printer-bridge/escpos"
)

// ErrDecode is returned when the image payload cannot be decoded
var ErrDecode = errors.New("invalid receipt image")

// Session is the connection a job prints through
type Session interface {
	Printer() (*escpos.Printer, error)
}

// Executor runs print jobs against a session. It keeps no state between jobs.
type Executor struct {
	session Session
	logger  zerolog.Logger
}

// NewExecutor creates an executor for the session
func NewExecutor(s Session, logger zerolog.Logger) *Executor {
	return &Executor{
		session: s,
		logger:  logger.With().Str("component", "executor").Logger(),
	}
}

// PrintReceipt decodes a base64 image and JSON options and prints the job.
func (e *Executor) PrintReceipt(imageData, optionsJSON string) error {
	printer, err := e.session.Printer()
	if err != nil {
		return err
	}

	img, err := DecodeImage(imageData)
	if err != nil {
		return err
	}

	opts, err := ParseOptions(optionsJSON)
	if err != nil {
		e.logger.Warn().Err(err).Msg("ignoring malformed print options")
	}

	return e.run(printer, img, opts)
}

// run prints each copy as image, cut, drawer kick. The first failure
// aborts the job; copies already printed are not undone.
func (e *Executor) run(printer *escpos.Printer, img image.Image, opts Options) error {
	logger := e.logger.With().
		Str("job", uuid.NewString()).
		Int("copies", opts.Copies).
		Bool("cut", opts.CutPaper).
		Bool("drawer", opts.OpenCashDrawer).
		Logger()

	profile := printer.Profile()
	if opts.DPI != profile.DPI || opts.PaperSize != fmt.Sprintf("%gmm", profile.PaperWidthMM) {
		logger.Debug().
			Int("dpi", opts.DPI).
			Str("paper_size", opts.PaperSize).
			Msg("requested paper settings differ from printer profile, using profile")
	}

	for i := 1; i <= opts.Copies; i++ {
		if err := printer.PrintImage(img); err != nil {
			return fmt.Errorf("copy %d of %d: %w", i, opts.Copies, err)
		}
		if opts.CutPaper {
			if err := printer.Cut(); err != nil {
				return fmt.Errorf("copy %d of %d: %w", i, opts.Copies, err)
			}
		}
		if opts.OpenCashDrawer {
			if err := printer.OpenCashDrawer(); err != nil {
				return fmt.Errorf("copy %d of %d: %w", i, opts.Copies, err)
			}
		}
	}

	logger.Info().Msg("receipt printed")
	return nil
}

// DecodeImage decodes standard base64 image data. A data URL prefix
// ("data:image/png;base64,") is accepted.
func DecodeImage(data string) (image.Image, error) {
	if strings.HasPrefix(data, "data:") {
		if i := strings.Index(data, ","); i >= 0 {
			data = data[i+1:]
		}
	}

	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("%w: base64: %v", ErrDecode, err)
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return img, nil
}
