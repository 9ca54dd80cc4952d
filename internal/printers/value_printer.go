package printers

import (
	"fmt"
	"io"
	"strings"

	ierr "itmscope/internal/common"
	"itmscope/internal/daq"
	"itmscope/internal/itm"
	"itmscope/internal/ocsd"
	"itmscope/internal/tpiu"
)

// ValuePrinter writes decoded values as "port N: <values>" lines and
// recoverable decoder outcomes as their error text.
type ValuePrinter struct {
	ItemPrinter
	ports        itm.PortConfig
	showNames    bool
	hideQuiet    bool
	collectStats bool
	valueCounts  [ocsd.NumPorts]int
	outcomeCount [ocsd.ErrLast]int
}

// NewValuePrinter creates a printer; ports supplies the display names.
func NewValuePrinter(writer io.Writer, ports itm.PortConfig) *ValuePrinter {
	return &ValuePrinter{
		ItemPrinter: *NewItemPrinter(writer),
		ports:       ports,
	}
}

// ShowNames adds the configured port name after the port number.
func (p *ValuePrinter) ShowNames(show bool) { p.showNames = show }

// HideQuiet suppresses unconfigured-port outcomes.
func (p *ValuePrinter) HideQuiet(hide bool) { p.hideQuiet = hide }

// SetCollectStats turns on statistics collections.
func (p *ValuePrinter) SetCollectStats() { p.collectStats = true }

// HandleEvent implements daq.Handler.
func (p *ValuePrinter) HandleEvent(ev daq.Event) {
	switch ev.Kind {
	case daq.EventValue:
		p.printValue(ev.Value)
	case daq.EventOutcome:
		p.printOutcome(ev.Err)
	}
}

func (p *ValuePrinter) printValue(v itm.DecodedValue) {
	if p.collectStats && int(v.Port) < len(p.valueCounts) {
		p.valueCounts[v.Port]++
	}
	if p.IsMuted() {
		return
	}

	var sb strings.Builder
	if !p.PortPrintMuted() {
		if p.showNames {
			sb.WriteString(fmt.Sprintf("port %d (%s): ", v.Port, p.ports.Name(v.Port)))
		} else {
			sb.WriteString(fmt.Sprintf("port %d: ", v.Port))
		}
	}
	sb.WriteString(v.Text())
	sb.WriteString("\n")
	p.ItemPrintLine(sb.String())
}

func (p *ValuePrinter) printOutcome(err error) {
	code := ierr.CodeOf(err)
	if code == ocsd.ErrUnderfull || code == ocsd.OK {
		return
	}
	if p.collectStats && code < ocsd.ErrLast {
		p.outcomeCount[code]++
	}
	if p.IsMuted() || (p.hideQuiet && itm.IsQuiet(err)) {
		return
	}
	p.ItemPrintLine(err.Error() + "\n")
}

// PrintStats outputs per-port value counts and per-code outcome counts.
func (p *ValuePrinter) PrintStats() {
	var sb strings.Builder

	sb.WriteString("Values decoded:-\n")
	for _, port := range p.ports.Enabled() {
		sb.WriteString(fmt.Sprintf("port %d (%s) : %d\n", port.Address, port.Name, p.valueCounts[port.Address]))
	}
	sb.WriteString("Outcomes:-\n")
	for code := ocsd.ErrUnconfiguredPort; code < ocsd.ErrLast; code++ {
		sb.WriteString(fmt.Sprintf("%s : %d\n", ierr.CodeName(code), p.outcomeCount[code]))
	}
	sb.WriteString("\n")

	p.ItemPrintLine(sb.String())
}

// PrintDeformatterStats outputs the TPIU frame counters.
func (p *ValuePrinter) PrintDeformatterStats(d *tpiu.Deformatter) {
	frames, fsyncs, dropped := d.Stats()

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("TPIU trace ID %d:-\n", d.TraceID()))
	sb.WriteString(fmt.Sprintf("frames : %d\n", frames))
	sb.WriteString(fmt.Sprintf("fsyncs : %d\n", fsyncs))
	sb.WriteString(fmt.Sprintf("other ID bytes : %d\n", dropped))
	sb.WriteString("\n")

	p.ItemPrintLine(sb.String())
}
