// internal/engine/formatter/number.go

package formatter

import (
	"fmt"
	"strings"
)

// Currency renders a dollar amount with thousands separators and two
// decimals, e.g. 1245678 -> "$1,245,678.00". Negative amounts keep the
// sign ahead of the dollar symbol.
func Currency(v float64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	s := fmt.Sprintf("%.2f", v)
	dot := strings.IndexByte(s, '.')
	return sign + "$" + groupThousands(s[:dot]) + s[dot:]
}

// Percent renders a ratio as a percentage with two decimals,
// e.g. 0.4251 -> "42.51%".
func Percent(ratio float64) string {
	return fmt.Sprintf("%.2f%%", ratio*100)
}

func groupThousands(digits string) string {
	n := len(digits)
	if n <= 3 {
		return digits
	}
	var b strings.Builder
	head := n % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < n; i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
