// SPDX-License-Identifier: MPL-2.0

package extract

const (
	// EventEntry is emitted once per archive entry in verbose mode.
	EventEntry EventKind = iota + 1
	// EventPercent is emitted each time another Percent of the entries was reached.
	EventPercent
)

type (
	// EventKind distinguishes progress events.
	EventKind int

	// Event is one progress notification. Name is set for EventEntry,
	// Percent for EventPercent.
	Event struct {
		Kind    EventKind
		Name    string
		Index   int
		Total   int
		Percent int
	}

	// progress turns entry indexes into events.
	progress struct {
		emit    func(Event)
		verbose bool
		percent int
		step    int
		total   int
	}
)

func (k EventKind) String() string {
	switch k {
	case EventEntry:
		return "entry"
	case EventPercent:
		return "percent"
	default:
		return "unknown"
	}
}

// newProgress prepares a reporter for total entries. The step is total
// divided by the number of percent divisions; archives with fewer entries
// than divisions produce no percent events.
func newProgress(emit func(Event), verbose bool, percent, total int) *progress {
	p := &progress{emit: emit, verbose: verbose, percent: percent, total: total}
	if percent > 0 {
		divisions := 100 / percent
		if divisions > 0 {
			p.step = total / divisions
		}
	}
	return p
}

// entry reports that the entry at index i is about to be extracted.
func (p *progress) entry(i int, name string) {
	if p.emit == nil {
		return
	}
	switch {
	case p.verbose:
		p.emit(Event{Kind: EventEntry, Name: name, Index: i, Total: p.total})
	case p.step > 0 && i > 0 && i%p.step == 0:
		p.emit(Event{Kind: EventPercent, Index: i, Total: p.total, Percent: (i / p.step) * p.percent})
	}
}
