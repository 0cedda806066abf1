package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/san-kum/wavestring/internal/wave"
)

// Telemetry exports solver progress as Prometheus metrics. It is a frame
// observer and is safe for concurrent use.
type Telemetry struct {
	mu        sync.Mutex
	params    wave.Params
	lastSteps int
	lastFrame time.Time

	registry  *prometheus.Registry
	steps     prometheus.Counter
	frames    prometheus.Counter
	simTime   prometheus.Gauge
	energy    prometheus.Gauge
	frameWall prometheus.Histogram
}

func NewTelemetry(p wave.Params) *Telemetry {
	t := &Telemetry{
		params:   p,
		registry: prometheus.NewRegistry(),
		steps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wavestring",
			Name:      "steps_total",
			Help:      "Solver steps taken.",
		}),
		frames: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wavestring",
			Name:      "frames_total",
			Help:      "Frames observed.",
		}),
		simTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "wavestring",
			Name:      "sim_time_seconds",
			Help:      "Simulated time of the last frame.",
		}),
		energy: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "wavestring",
			Name:      "energy",
			Help:      "Energy of the last frame.",
		}),
		frameWall: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "wavestring",
			Name:      "frame_interval_seconds",
			Help:      "Wall-clock time between frames.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
	}
	t.registry.MustRegister(t.steps, t.frames, t.simTime, t.energy, t.frameWall)
	return t
}

// SetParams changes the parameters used for the energy gauge and restarts
// step counting, as after a solver reset.
func (t *Telemetry) SetParams(p wave.Params) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.params = p
	t.lastSteps = 0
}

func (t *Telemetry) OnFrame(simTime float64, steps int, field wave.Field) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	if !t.lastFrame.IsZero() {
		t.frameWall.Observe(now.Sub(t.lastFrame).Seconds())
	}
	t.lastFrame = now

	if steps > t.lastSteps {
		t.steps.Add(float64(steps - t.lastSteps))
	}
	t.lastSteps = steps

	t.frames.Inc()
	t.simTime.Set(simTime)
	t.energy.Set(FieldEnergy(field, t.params))
}

func (t *Telemetry) Registry() *prometheus.Registry { return t.registry }

func (t *Telemetry) Handler() http.Handler {
	return promhttp.HandlerFor(t.registry, promhttp.HandlerOpts{Registry: t.registry})
}
