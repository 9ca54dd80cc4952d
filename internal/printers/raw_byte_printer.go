package printers

import (
	"fmt"
	"io"
	"strings"

	"itmscope/internal/ocsd"
)

// RawBytePrinter dumps the raw source stream in hex, before any
// deformatting or decoding.
type RawBytePrinter struct {
	ItemPrinter
}

// NewRawBytePrinter creates a new printer for raw stream chunks.
func NewRawBytePrinter(writer io.Writer) *RawBytePrinter {
	return &RawBytePrinter{
		ItemPrinter: *NewItemPrinter(writer),
	}
}

// TraceRawIn prints one chunk read at stream offset index.
func (p *RawBytePrinter) TraceRawIn(index ocsd.TrcIndex, data []byte) {
	if p.IsMuted() {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Raw Data; Index%7d; ", index))

	lineBytes := 0
	for i := range data {
		if lineBytes == 16 {
			sb.WriteString("\n")
			lineBytes = 0
		}
		sb.WriteString(fmt.Sprintf("%02x ", data[i]))
		lineBytes++
	}
	sb.WriteString("\n")
	p.ItemPrintLine(sb.String())
}
