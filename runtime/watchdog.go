package runtime

// Reason is the closed set of watchdog envelope reasons (§4.5, §6).
type Reason string

const (
	ReasonCompileError Reason = "compile-error"
	ReasonSinkBurst     Reason = "sink-burst"
	ReasonOscillation   Reason = "oscillation"
)

// WatchdogInfo is the envelope passed to the host's onWatchdog callback.
type WatchdogInfo struct {
	Reason      Reason
	Message     string
	Diagnostics map[string]interface{}
}

// continuousActions never participate in oscillation tracking: they are
// expected to change every tick by design (§4.5).
var continuousActions = map[string]bool{
	"visualScenes":        true,
	"visualEffects":       true,
	"screenColor":         true,
	"modulateSoundUpdate": true,
}

const (
	defaultOscillationWindow = 10
	defaultOscillationSpanMs = int64(1000)
	minOscillationRun        = 6
)

type oscKey struct {
	nodeID string
	portID string
}

type oscSample struct {
	signature string
	timeMs    int64
}

// oscillationTracker keeps a bounded sliding window of signatures per
// (nodeId, sinkPortId) and reports when the tail alternates strictly between
// exactly two values within a bounded wall-clock span.
type oscillationTracker struct {
	windowSize int
	spanMs     int64
	samples    map[oscKey][]oscSample
}

func newOscillationTracker(windowSize int, spanMs int64) *oscillationTracker {
	if windowSize <= 0 {
		windowSize = defaultOscillationWindow
	}
	if spanMs <= 0 {
		spanMs = defaultOscillationSpanMs
	}
	return &oscillationTracker{windowSize: windowSize, spanMs: spanMs, samples: make(map[oscKey][]oscSample)}
}

// Record appends a new sample for (nodeID, portID) and reports whether the
// window now shows oscillation. action is ignored (not tracked) when it's a
// continuous action.
func (t *oscillationTracker) Record(nodeID, portID, action string, signature string, nowMs int64) bool {
	if continuousActions[action] {
		return false
	}
	k := oscKey{nodeID, portID}
	samples := append(t.samples[k], oscSample{signature: signature, timeMs: nowMs})
	if len(samples) > t.windowSize {
		samples = samples[len(samples)-t.windowSize:]
	}
	t.samples[k] = samples
	return detectAlternation(samples, t.spanMs)
}

// detectAlternation reports whether the tail of samples (at least
// minOscillationRun long) strictly alternates between exactly two distinct
// signatures, all within spanMs of each other.
func detectAlternation(samples []oscSample, spanMs int64) bool {
	if len(samples) < minOscillationRun {
		return false
	}
	tail := samples[len(samples)-minOscillationRun:]

	if tail[len(tail)-1].timeMs-tail[0].timeMs > spanMs {
		return false
	}

	var a, b string
	a = tail[0].signature
	for i := 1; i < len(tail); i++ {
		if tail[i].signature == a {
			continue
		}
		if b == "" {
			b = tail[i].signature
			continue
		}
		if tail[i].signature != b {
			return false
		}
	}
	if b == "" {
		return false // every sample identical: not oscillation, just static
	}
	for i := 0; i < len(tail); i++ {
		want := a
		if i%2 == 1 {
			want = b
		}
		if tail[i].signature != want {
			return false
		}
	}
	return true
}

// Reset clears all tracked windows, used on clear()/loadGraph().
func (t *oscillationTracker) Reset() {
	t.samples = make(map[oscKey][]oscSample)
}
