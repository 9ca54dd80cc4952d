package printers

import (
	"fmt"
	"io"

	"itmscope/common"
)

// ItemPrinter is the shared base of the console printers.
type ItemPrinter struct {
	writer        io.Writer
	msgLog        common.Logger
	muted         bool
	portPrintMute bool
}

// NewItemPrinter constructs an ItemPrinter using the given io.Writer.
func NewItemPrinter(writer io.Writer) *ItemPrinter {
	return &ItemPrinter{
		writer: writer,
	}
}

// SetMessageLogger mirrors every printed line to logger at info level.
func (p *ItemPrinter) SetMessageLogger(logger common.Logger) {
	p.msgLog = logger
}

// ItemPrintLine writes the given message to the writer and optionally logs it.
func (p *ItemPrinter) ItemPrintLine(msg string) {
	if p.writer != nil {
		fmt.Fprint(p.writer, msg)
	}
	if p.msgLog != nil {
		p.msgLog.Info(msg)
	}
}

// SetMute sets the printer to mute (avoids output).
func (p *ItemPrinter) SetMute(mute bool) { p.muted = mute }

// IsMuted returns true if the printer is muted.
func (p *ItemPrinter) IsMuted() bool { return p.muted }

// MutePortPrint drops the "port N: " prefix from value lines.
func (p *ItemPrinter) MutePortPrint(mute bool) { p.portPrintMute = mute }

// PortPrintMuted returns whether port printing is muted.
func (p *ItemPrinter) PortPrintMuted() bool { return p.portPrintMute }
