package memtree

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/genc-murat/memscope/internal/util"
)

// Connector glyph set. The root is marked distinctly; every other line
// accumulates one glyph pair per depth level.
const (
	glyphRoot     = "⏺"
	glyphBranch   = "├╴"
	glyphLast     = "╰╴"
	glyphContinue = "│ "
	glyphBlank    = "  "
)

var (
	sizeColorMB = color.New(color.FgGreen)
	sizeColorGB = color.New(color.FgYellow)
	sizeColorTB = color.New(color.FgRed)
)

func init() {
	// Styling is an explicit flag, not a tty heuristic; keep output
	// identical wherever it is written.
	sizeColorMB.EnableColor()
	sizeColorGB.EnableColor()
	sizeColorTB.EnableColor()
}

// formatNodes is phase two: the node sequence becomes connector-decorated
// lines with a right-aligned size column.
func formatNodes(w io.Writer, nodes []Node, flags Flags) error {
	sizes := make([]string, len(nodes))
	width := 0
	for i, n := range nodes {
		if n.Variant != "" {
			continue
		}
		if flags.Has(Humanize) {
			sizes[i] = util.HumanizeBytes(uint64(n.Size))
		} else {
			sizes[i] = util.GroupDigits(uint64(n.Size)) + " B"
		}
		if len(sizes[i]) > width {
			width = len(sizes[i])
		}
	}

	var rootSize uintptr
	if len(nodes) > 0 {
		rootSize = nodes[0].Size
	}

	bw := bufio.NewWriter(w)
	for i, n := range nodes {
		writeSizeColumn(bw, sizes[i], n, width, flags)
		if flags.Has(Percent) {
			writePercentColumn(bw, n, i == 0, rootSize)
		}
		bw.WriteByte(' ')
		writePrefix(bw, n.Branches)
		writeContent(bw, n, i == 0)
		if n.Padding > 0 {
			fmt.Fprintf(bw, " [%dB]", n.Padding)
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

func writeSizeColumn(bw *bufio.Writer, size string, n Node, width int, flags Flags) {
	if n.Variant != "" {
		bw.WriteString(strings.Repeat(" ", width))
		return
	}
	if pad := width - len(size); pad > 0 {
		bw.WriteString(strings.Repeat(" ", pad))
	}
	if flags.Has(Color) {
		bw.WriteString(colorizeSize(size, n.Size))
		return
	}
	bw.WriteString(size)
}

func writePercentColumn(bw *bufio.Writer, n Node, root bool, rootSize uintptr) {
	if n.Variant != "" {
		bw.WriteString(strings.Repeat(" ", 8))
		return
	}
	pct := 100.0
	if rootSize > 0 {
		pct = float64(n.Size) / float64(rootSize) * 100
	} else if !root {
		pct = 0
	}
	fmt.Fprintf(bw, " %6.2f%%", pct)
}

func writePrefix(bw *bufio.Writer, branches []bool) {
	for level, last := range branches {
		if level == len(branches)-1 {
			if last {
				bw.WriteString(glyphLast)
			} else {
				bw.WriteString(glyphBranch)
			}
			continue
		}
		if last {
			bw.WriteString(glyphBlank)
		} else {
			bw.WriteString(glyphContinue)
		}
	}
}

func writeContent(bw *bufio.Writer, n Node, root bool) {
	switch {
	case n.Variant != "":
		bw.WriteString("Variant: ")
		bw.WriteString(n.Variant)
	case root:
		bw.WriteString(glyphRoot)
		bw.WriteString(": ")
		bw.WriteString(n.TypeName)
	case n.Label != "":
		bw.WriteString(n.Label)
		bw.WriteString(": ")
		bw.WriteString(n.TypeName)
	default:
		bw.WriteString(n.TypeName)
	}
}

// colorizeSize styles the rendered size by magnitude bucket. Thresholds
// are cosmetic; they match the decimal units of the humanized format.
func colorizeSize(s string, size uintptr) string {
	switch {
	case size < 1_000_000:
		return s
	case size < 1_000_000_000:
		return sizeColorMB.Sprint(s)
	case size < 1_000_000_000_000:
		return sizeColorGB.Sprint(s)
	default:
		return sizeColorTB.Sprint(s)
	}
}
