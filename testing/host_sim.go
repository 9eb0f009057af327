package testing

import (
	"math/rand/v2"
	"sync"
	"time"

	"github.com/opd-ai/denoisefx/interfaces"
	"github.com/opd-ai/denoisefx/video"
	"github.com/sirupsen/logrus"
)

// SimulatedSource is an upstream pipeline node with a fixed size.
type SimulatedSource struct {
	mu     sync.RWMutex
	name   string
	width  uint32
	height uint32
}

// NewSimulatedSource creates a source reporting the given size.
func NewSimulatedSource(name string, width, height uint32) *SimulatedSource {
	return &SimulatedSource{name: name, width: width, height: height}
}

// Name implements interfaces.ISource.
func (s *SimulatedSource) Name() string {
	return s.name
}

// Width implements interfaces.ISource.
func (s *SimulatedSource) Width() uint32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.width
}

// Height implements interfaces.ISource.
func (s *SimulatedSource) Height() uint32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.height
}

// SetSize changes the reported size.
func (s *SimulatedSource) SetSize(width, height uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.width = width
	s.height = height
}

// DrawRecord is one publish or bypass observed by the host.
type DrawRecord struct {
	Skipped   bool
	Frame     *video.VideoFrame
	Width     uint32
	Height    uint32
	Checksum  [32]byte
	Timestamp int64
}

// HostStats summarizes what the host observed.
type HostStats struct {
	Captures int
	Refusals int
	Draws    int
	Skips    int
}

// SimulatedHost implements interfaces.IHost in memory. Capture resamples a
// configurable upstream picture into the instance's buffer; Draw and
// SkipVideoFilter are recorded in a log for verification.
type SimulatedHost struct {
	mu     sync.RWMutex
	name   string
	target *SimulatedSource
	parent *SimulatedSource
	source *video.VideoFrame
	scaler *video.Scaler
	refuse bool

	drawLog []DrawRecord
	stats   HostStats
}

// NewSimulatedHost creates a host whose target reports width x height and
// whose upstream picture is a deterministic noisy frame of that size.
func NewSimulatedHost(name string, width, height uint32) *SimulatedHost {
	logrus.WithFields(logrus.Fields{
		"function": "NewSimulatedHost",
		"name":     name,
		"width":    width,
		"height":   height,
	}).Debug("Creating simulated host")

	h := &SimulatedHost{
		name:    name,
		target:  NewSimulatedSource(name+"-target", width, height),
		scaler:  video.NewScaler(),
		drawLog: make([]DrawRecord, 0),
	}
	if width > 0 && height > 0 {
		h.source = NoisyFrame(width, height, 1)
	}
	return h
}

// Name implements interfaces.IHost.
func (h *SimulatedHost) Name() string {
	return h.name
}

// Target implements interfaces.IHost.
func (h *SimulatedHost) Target() interfaces.ISource {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.target == nil {
		return nil
	}
	return h.target
}

// Parent implements interfaces.IHost.
func (h *SimulatedHost) Parent() interfaces.ISource {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.parent == nil {
		return nil
	}
	return h.parent
}

// TargetSource returns the concrete target, or nil.
func (h *SimulatedHost) TargetSource() *SimulatedSource {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.target
}

// ClearTarget detaches the target so the filter only sees its parent.
func (h *SimulatedHost) ClearTarget() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.target = nil
}

// SetParent attaches a parent source.
func (h *SimulatedHost) SetParent(parent *SimulatedSource) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.parent = parent
}

// SetSourceFrame replaces the upstream picture. The frame is copied.
func (h *SimulatedHost) SetSourceFrame(frame *video.VideoFrame) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if frame == nil {
		h.source = nil
		return
	}
	h.source = frame.Clone()
}

// SourceFrame returns a copy of the upstream picture.
func (h *SimulatedHost) SourceFrame() *video.VideoFrame {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.source == nil {
		return nil
	}
	return h.source.Clone()
}

// SetRefuseCapture makes Capture fail until reset.
func (h *SimulatedHost) SetRefuseCapture(refuse bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.refuse = refuse
}

// Capture implements interfaces.IHost by resampling the upstream picture into dst.
func (h *SimulatedHost) Capture(dst *video.VideoFrame) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.refuse || h.source == nil {
		h.stats.Refusals++
		logrus.WithFields(logrus.Fields{
			"function": "SimulatedHost.Capture",
			"host":     h.name,
		}).Debug("Capture refused")
		return false
	}

	if err := h.scaler.ScaleInto(dst, h.source); err != nil {
		h.stats.Refusals++
		logrus.WithFields(logrus.Fields{
			"function": "SimulatedHost.Capture",
			"host":     h.name,
			"error":    err.Error(),
		}).Warn("Capture failed")
		return false
	}
	h.stats.Captures++
	return true
}

// SkipVideoFilter implements interfaces.IHost.
func (h *SimulatedHost) SkipVideoFilter() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stats.Skips++
	h.drawLog = append(h.drawLog, DrawRecord{
		Skipped:   true,
		Timestamp: time.Now().UnixNano(),
	})
}

// Draw implements interfaces.IHost and fingerprints the published frame.
func (h *SimulatedHost) Draw(frame *video.VideoFrame, width, height uint32) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stats.Draws++
	h.drawLog = append(h.drawLog, DrawRecord{
		Frame:     frame,
		Width:     width,
		Height:    height,
		Checksum:  frame.Checksum(),
		Timestamp: time.Now().UnixNano(),
	})
}

// GetDrawLog returns a copy of the publish log.
func (h *SimulatedHost) GetDrawLog() []DrawRecord {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]DrawRecord, len(h.drawLog))
	copy(out, h.drawLog)
	return out
}

// LastDraw returns the most recent record, if any.
func (h *SimulatedHost) LastDraw() (DrawRecord, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.drawLog) == 0 {
		return DrawRecord{}, false
	}
	return h.drawLog[len(h.drawLog)-1], true
}

// ClearDrawLog empties the log and resets the statistics.
func (h *SimulatedHost) ClearDrawLog() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.drawLog = h.drawLog[:0]
	h.stats = HostStats{}
}

// GetTypedStats returns the host counters.
func (h *SimulatedHost) GetTypedStats() HostStats {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.stats
}

// NoisyFrame builds a frame with a smooth luma gradient plus uniform noise of
// +-8, reproducible for a given seed.
func NoisyFrame(width, height uint32, seed uint64) *video.VideoFrame {
	frame, err := video.NewVideoFrame(width, height)
	if err != nil {
		panic(err)
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	for y := 0; y < int(height); y++ {
		for x := 0; x < int(width); x++ {
			base := 64 + (x*128)/int(width)
			v := base + rng.IntN(17) - 8
			frame.Y[y*frame.YStride+x] = byte(v)
		}
	}
	return frame
}

var _ interfaces.IHost = (*SimulatedHost)(nil)
