package marketdata

import (
	"fmt"
	"time"
)

// IntervalDuration traduce la etiqueta de intervalo ("1m", "5m", "1h", "1d"...)
// a su duración.
func IntervalDuration(label string) (time.Duration, error) {
	switch label {
	case "1m":
		return time.Minute, nil
	case "2m":
		return 2 * time.Minute, nil
	case "5m":
		return 5 * time.Minute, nil
	case "15m":
		return 15 * time.Minute, nil
	case "30m":
		return 30 * time.Minute, nil
	case "60m", "1h":
		return time.Hour, nil
	case "1d":
		return 24 * time.Hour, nil
	}
	return 0, fmt.Errorf("unknown interval %q", label)
}
