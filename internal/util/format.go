package util

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// GroupDigits renders n as a decimal integer with thousands separators.
func GroupDigits(n uint64) string {
	s := strconv.FormatUint(n, 10)
	if len(s) <= 3 {
		return s
	}
	var builder strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		builder.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if builder.Len() > 0 {
			builder.WriteByte(',')
		}
		builder.WriteString(s[i : i+3])
	}
	return builder.String()
}

var byteUnits = []string{"B", "kB", "MB", "GB", "TB", "PB", "EB"}

// HumanizeBytes renders n scaled to its largest decimal unit with about
// three significant digits. Values under one kilobyte stay integral.
func HumanizeBytes(n uint64) string {
	if n < 1000 {
		return fmt.Sprintf("%d B", n)
	}
	// Scaling and precision thresholds account for the rounding the
	// verbs below perform, so 999,950 B rolls over to "1.000 MB"
	// instead of printing as "1000.0 kB".
	value := float64(n)
	unit := 0
	for value >= 999.95 && unit < len(byteUnits)-1 {
		value /= 1000
		unit++
	}
	switch {
	case value < 9.9995:
		return fmt.Sprintf("%.3f %s", value, byteUnits[unit])
	case value < 99.995:
		return fmt.Sprintf("%.2f %s", value, byteUnits[unit])
	default:
		return fmt.Sprintf("%.1f %s", value, byteUnits[unit])
	}
}

// FormatReport takes a map of report key-values and returns a formatted
// string with one sorted "key: value" entry per line.
func FormatReport(info map[string]string) string {
	var builder strings.Builder
	keys := make([]string, 0, len(info))
	for k := range info {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		builder.WriteString(k)
		builder.WriteString(": ")
		builder.WriteString(info[k])
		builder.WriteString("\n")
	}
	return builder.String()
}
