// Package trace writes a per-tick record of a run as zstd-compressed JSON
// lines, for replay and offline inspection.
package trace

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/talgya/crystal-expedition/internal/engine"
)

// Header is the first line of a trace file.
type Header struct {
	Type     string     `json:"type"` // "header"
	RunID    string     `json:"run_id"`
	Seed     int64      `json:"seed"`
	Width    float64    `json:"width"`
	Height   float64    `json:"height"`
	CellSize float64    `json:"cell_size"`
	Base     [2]float64 `json:"base"`
}

// AgentState is an agent as seen at the end of a tick.
type AgentState struct {
	ID      uint32  `json:"id"`
	Kind    string  `json:"kind"`
	Role    string  `json:"role"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Heading float64 `json:"heading"`
}

// Frame is one tick of a trace.
type Frame struct {
	Type   string         `json:"type"` // "frame"
	Tick   uint64         `json:"tick"`
	Clock  float64        `json:"clock"`
	Target *uint32        `json:"target,omitempty"` // Resource ID being collected
	Agents []AgentState   `json:"agents"`
	Events []engine.Event `json:"events"`
	Seen   int            `json:"seen"`
}

// NewHeader describes the session a trace belongs to.
func NewHeader(runID string, seed int64, sim *engine.Simulation) Header {
	b := sim.Grid.Bounds
	return Header{
		Type:     "header",
		RunID:    runID,
		Seed:     seed,
		Width:    b.Width,
		Height:   b.Height,
		CellSize: b.CellSize,
		Base:     [2]float64{sim.Base.X(), sim.Base.Y()},
	}
}

// FrameOf captures the simulation state after a tick together with the
// events that tick returned.
func FrameOf(sim *engine.Simulation, events []engine.Event) Frame {
	f := Frame{
		Type:   "frame",
		Tick:   sim.CurrentTick(),
		Clock:  sim.Clock,
		Agents: make([]AgentState, 0, len(sim.Agents)),
		Events: events,
		Seen:   sim.Explored.Count(),
	}
	if f.Events == nil {
		f.Events = []engine.Event{}
	}
	if sim.Target != nil {
		id := uint32(sim.Target.Resource)
		f.Target = &id
	}
	for _, a := range sim.Agents {
		f.Agents = append(f.Agents, AgentState{
			ID:      uint32(a.ID),
			Kind:    a.Kind.String(),
			Role:    a.Role.String(),
			X:       a.Position.X(),
			Y:       a.Position.Y(),
			Heading: a.Heading,
		})
	}
	return f
}

// Writer appends JSON lines to a zstd stream. It is safe for concurrent use.
type Writer struct {
	mu  sync.Mutex
	f   *os.File
	enc *zstd.Encoder
	w   *bufio.Writer
}

// NewWriter creates (or truncates) the trace file at path.
func NewWriter(path string) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &Writer{f: f, enc: enc, w: bufio.NewWriterSize(enc, 128*1024)}, nil
}

// WriteHeader writes the header line. Call it once, before any frame.
func (w *Writer) WriteHeader(h Header) error { return w.write(h) }

// WriteFrame appends one tick.
func (w *Writer) WriteFrame(f Frame) error { return w.write(f) }

func (w *Writer) write(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.w == nil {
		return errors.New("trace writer closed")
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	return w.w.WriteByte('\n')
}

// Close flushes and closes the stream.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.w == nil {
		return nil
	}
	err := w.w.Flush()
	if cerr := w.enc.Close(); err == nil {
		err = cerr
	}
	if cerr := w.f.Close(); err == nil {
		err = cerr
	}
	w.w, w.enc, w.f = nil, nil, nil
	return err
}

// ReadFrames decodes a whole trace file.
func ReadFrames(path string) (Header, []Frame, error) {
	var h Header
	f, err := os.Open(path)
	if err != nil {
		return h, nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return h, nil, err
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), 8*1024*1024)

	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return h, nil, err
		}
		return h, nil, fmt.Errorf("%s: empty trace", path)
	}
	if err := json.Unmarshal(sc.Bytes(), &h); err != nil {
		return h, nil, fmt.Errorf("%s: header: %w", path, err)
	}

	var frames []Frame
	for line := 2; sc.Scan(); line++ {
		var fr Frame
		if err := json.Unmarshal(sc.Bytes(), &fr); err != nil {
			return h, frames, fmt.Errorf("%s:%d: %w", path, line, err)
		}
		frames = append(frames, fr)
	}
	return h, frames, sc.Err()
}
