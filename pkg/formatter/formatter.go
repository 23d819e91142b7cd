package formatter

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// FormatNumber converts an integer to a string with commas as thousands separators.
// Example: 1234567 -> "1,234,567"
func FormatNumber(n int) string {
	s := strconv.Itoa(n)
	if n < 0 {
		s = s[1:]
	}

	le := len(s)
	if le <= 3 {
		if n < 0 {
			return "-" + s
		}
		return s
	}

	sepCount := (le - 1) / 3

	res := make([]byte, le+sepCount)

	j := len(res) - 1
	for i := le - 1; i >= 0; i-- {
		res[j] = s[i]
		j--
		if (le-i)%3 == 0 && i > 0 {
			res[j] = ','
			j--
		}
	}

	if n < 0 {
		return "-" + string(res)
	}
	return string(res)
}

const (
	barFull  = '▰'
	barEmpty = '▱'
)

// ProgressBar renders fraction as a bar of width cells.
// Example: ProgressBar(0.5, 4) -> "▰▰▱▱"
func ProgressBar(fraction float64, width int) string {
	if width <= 0 {
		return ""
	}
	if fraction < 0 || math.IsNaN(fraction) {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}

	filled := int(math.Round(fraction * float64(width)))

	var sb strings.Builder
	for i := 0; i < width; i++ {
		if i < filled {
			sb.WriteRune(barFull)
		} else {
			sb.WriteRune(barEmpty)
		}
	}
	return sb.String()
}

// FormatClock renders d as m:ss, rounded down to the second.
// Example: 75s -> "1:15"
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int(d / time.Second)
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}
