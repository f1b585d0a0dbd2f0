package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/joshuapare/xmalloc/alloc"
)

// Heap map cell glyphs
const (
	liveCell  = '█'
	freeCell  = '·'
	mixedCell = '▒'
)

type cellKind uint8

const (
	cellFree cellKind = iota
	cellLive
	cellMixed
)

// classifyCells splits [0, regionSize) into n equal cells and reports whether
// each is covered by allocated blocks, free blocks or both.
func classifyCells(blocks []alloc.BlockInfo, regionSize, n int) []cellKind {
	cells := make([]cellKind, n)
	if regionSize <= 0 || n <= 0 {
		return cells
	}
	j := 0
	for i := range cells {
		lo := i * regionSize / n
		hi := (i + 1) * regionSize / n
		if hi <= lo {
			hi = lo + 1
		}
		for j < len(blocks) && blocks[j].End() <= lo {
			j++
		}
		sawLive, sawFree := false, false
		for k := j; k < len(blocks) && blocks[k].Off < hi; k++ {
			if blocks[k].Free {
				sawFree = true
			} else {
				sawLive = true
			}
		}
		switch {
		case sawLive && sawFree:
			cells[i] = cellMixed
		case sawLive:
			cells[i] = cellLive
		default:
			cells[i] = cellFree
		}
	}
	return cells
}

// renderHeapMap draws the region as rows of width cells.
func renderHeapMap(blocks []alloc.BlockInfo, regionSize, width, rows int) string {
	if len(blocks) == 0 {
		return styled(labelStyle, "(region not acquired)")
	}
	width = max(width, 1)
	rows = max(rows, 1)
	cells := classifyCells(blocks, regionSize, width*rows)

	var b strings.Builder
	for r := range rows {
		if r > 0 {
			b.WriteByte('\n')
		}
		row := cells[r*width : (r+1)*width]
		// Render runs so each style is applied once per run.
		for start := 0; start < len(row); {
			end := start
			for end < len(row) && row[end] == row[start] {
				end++
			}
			b.WriteString(renderRun(row[start], end-start))
			start = end
		}
	}
	return b.String()
}

func renderRun(kind cellKind, n int) string {
	switch kind {
	case cellLive:
		return styled(liveCellStyle, strings.Repeat(string(liveCell), n))
	case cellMixed:
		return styled(mixedCellStyle, strings.Repeat(string(mixedCell), n))
	default:
		return styled(freeCellStyle, strings.Repeat(string(freeCell), n))
	}
}

// writeBlockTable prints one line per block in address order.
func writeBlockTable(w io.Writer, blocks []alloc.BlockInfo) {
	fmt.Fprintf(w, "%-12s %-12s %-12s %s\n", "OFFSET", "SIZE", "PAYLOAD", "STATE")
	for _, bi := range blocks {
		state, payload := "free", "-"
		if !bi.Free {
			state = "live"
			payload = fmt.Sprintf("%#x", uint64(bi.Ptr()))
		}
		fmt.Fprintf(w, "%#-12x %-12d %-12s %s\n", bi.Off, bi.Size, payload, state)
	}
}
