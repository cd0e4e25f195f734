//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealReader reads a line from actual hardware using the Linux GPIO character device.
type RealReader struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line
	cfg  LineConfig
}

// NewRealReader requests the configured line as an input.
func NewRealReader(cfg LineConfig) (*RealReader, error) {
	if cfg.Chip == "" {
		cfg.Chip = DefaultChip
	}
	chip, err := gpiocdev.NewChip(cfg.Chip)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", cfg.Chip, err)
	}

	line, err := chip.RequestLine(cfg.Pin, lineOptions(cfg)...)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request pin %d: %w", cfg.Pin, err)
	}

	return &RealReader{chip: chip, line: line, cfg: cfg}, nil
}

func lineOptions(cfg LineConfig) []gpiocdev.LineReqOption {
	opts := []gpiocdev.LineReqOption{gpiocdev.AsInput}
	switch cfg.Bias {
	case BiasPullUp:
		opts = append(opts, gpiocdev.WithPullUp)
	case BiasDisabled:
		opts = append(opts, gpiocdev.WithBiasDisabled)
	default:
		opts = append(opts, gpiocdev.WithPullDown)
	}
	if cfg.ActiveLow {
		opts = append(opts, gpiocdev.AsActiveLow)
	}
	return opts
}

// Read returns the logical value of the line. Active-low inversion is
// applied by the kernel.
func (r *RealReader) Read() (bool, error) {
	v, err := r.line.Value()
	if err != nil {
		return false, fmt.Errorf("read pin %d: %w", r.cfg.Pin, err)
	}
	return v == 1, nil
}

// Close releases GPIO resources.
// Reconfigures the line to input with pull-down (matching Pi boot defaults)
// before closing so external hardware sees a clean state on reboot.
func (r *RealReader) Close() error {
	var errs []error

	if r.line != nil {
		if err := r.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure pin %d: %w", r.cfg.Pin, err))
		}
		if err := r.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close pin %d: %w", r.cfg.Pin, err))
		}
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
