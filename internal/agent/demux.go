package agent

import (
	"github.com/haasonsaas/tonari/pkg/models"
)

// Demux converts a raw model event stream into the client event sequence.
// It is a single-pass consumer in the style of bufio.Scanner:
//
//	d := agent.NewDemux(raw)
//	for d.Next() {
//		send(d.Event())
//	}
//	if err := d.Err(); err != nil { ... }
//
// Guarantees: every ToolStart is followed by exactly one ToolEnd before any
// other ToolStart or TextChunk; output order is an order-preserving
// projection of the input; repeated notifications for the same in-flight
// tool are collapsed; unknown raw event kinds are skipped.
type Demux struct {
	in         <-chan models.ModelEvent
	activeTool string
	pending    []models.ClientEvent
	current    models.ClientEvent
	err        error
	done       bool
}

// NewDemux wraps a raw model event stream.
func NewDemux(in <-chan models.ModelEvent) *Demux {
	return &Demux{in: in}
}

// Next advances to the next client event, blocking on the underlying
// stream. It returns false when the stream is exhausted or failed.
func (d *Demux) Next() bool {
	for {
		if len(d.pending) > 0 {
			d.current = d.pending[0]
			d.pending = d.pending[1:]
			return true
		}
		if d.done {
			return false
		}

		ev, ok := <-d.in
		if !ok {
			d.finish()
			continue
		}

		switch ev.Kind {
		case models.ModelEventText:
			if d.activeTool != "" {
				d.pending = append(d.pending, models.ToolEnd())
				d.activeTool = ""
			}
			// Empty deltas are still emitted.
			d.pending = append(d.pending, models.TextChunk(ev.Text))

		case models.ModelEventToolUse:
			// An unnamed tool event would corrupt the bracket state: the
			// empty string is the no-active-tool sentinel.
			if ev.ToolName == "" || ev.ToolName == d.activeTool {
				continue
			}
			if d.activeTool != "" {
				d.pending = append(d.pending, models.ToolEnd())
			}
			d.pending = append(d.pending, models.ToolStart(ev.ToolName))
			d.activeTool = ev.ToolName

		case models.ModelEventDone:
			d.finish()

		case models.ModelEventError:
			// Stream failure takes precedence over boundary cleanup.
			d.err = ev.Err
			d.pending = nil
			d.done = true

		default:
			// Unrecognized event shapes are expected forward-compatibility
			// cases, skipped without logging.
		}
	}
}

// finish closes out the stream, synthesizing a final ToolEnd if a tool was
// still in flight.
func (d *Demux) finish() {
	if !d.done && d.activeTool != "" {
		d.pending = append(d.pending, models.ToolEnd())
		d.activeTool = ""
	}
	d.done = true
}

// Event returns the current client event. Valid after Next returns true.
func (d *Demux) Event() models.ClientEvent {
	return d.current
}

// Err returns the stream's terminal error, if any.
func (d *Demux) Err() error {
	return d.err
}
