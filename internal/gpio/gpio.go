// Package gpio provides raw input sampling with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

// Reader samples a single input line.
type Reader interface {
	// Read returns the logical value of the line (active = true).
	Read() (bool, error)

	// Close releases GPIO resources.
	Close() error
}

// Line defaults (BCM numbering on a Raspberry Pi).
const (
	DefaultChip = "gpiochip0"
	DefaultPin  = 17
)

// Bias selects the internal pull resistor for the line.
type Bias string

const (
	BiasPullDown Bias = "pull-down"
	BiasPullUp   Bias = "pull-up"
	BiasDisabled Bias = "disabled"
)

// LineConfig identifies and configures the input line.
type LineConfig struct {
	Chip      string
	Pin       int
	ActiveLow bool
	Bias      Bias
}
