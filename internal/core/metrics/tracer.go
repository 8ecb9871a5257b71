package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "swarm"

// 缓存查询结果
const (
	CacheMuxed = "muxed"
	CacheRaw   = "raw"
	CacheMiss  = "miss"
)

// 流方向
const (
	DirectionIn  = "in"
	DirectionOut = "out"
)

// Tracer Prometheus 指标记录器
type Tracer struct {
	registry *prometheus.Registry

	dials        *prometheus.CounterVec
	dialDuration prometheus.Histogram
	cacheLookups *prometheus.CounterVec
	upgrades     *prometheus.CounterVec
	identify     *prometheus.CounterVec
	streamBytes  *prometheus.CounterVec
}

// NewTracer 创建并注册指标
//
// reg 为 nil 时使用新建的独立注册表。
func NewTracer(reg *prometheus.Registry) (*Tracer, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	t := &Tracer{
		registry: reg,
		dials: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dials_total",
			Help:      "Number of dial jobs by result.",
		}, []string{"result"}),
		dialDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dial_duration_seconds",
			Help:      "Duration of dial jobs.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 15),
		}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Connection cache lookups by kind.",
		}, []string{"kind"}),
		upgrades: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "muxer_upgrades_total",
			Help:      "Muxer upgrade attempts by codec and result.",
		}, []string{"codec", "result"}),
		identify: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "identify_total",
			Help:      "Identify exchanges by result.",
		}, []string{"result"}),
		streamBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stream_bytes_total",
			Help:      "Bytes transferred on negotiated streams.",
		}, []string{"protocol", "direction"}),
	}

	for _, c := range []prometheus.Collector{
		t.dials, t.dialDuration, t.cacheLookups, t.upgrades, t.identify, t.streamBytes,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Registry 返回注册表
func (t *Tracer) Registry() *prometheus.Registry {
	if t == nil {
		return nil
	}
	return t.registry
}

// Handler 返回 /metrics HTTP 处理器
func (t *Tracer) Handler() http.Handler {
	if t == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(t.registry, promhttp.HandlerOpts{})
}

func result(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}

// DialCompleted 记录一次拨号结果
func (t *Tracer) DialCompleted(err error, d time.Duration) {
	if t == nil {
		return
	}
	t.dials.WithLabelValues(result(err)).Inc()
	t.dialDuration.Observe(d.Seconds())
}

// CacheLookup 记录缓存查询（CacheMuxed / CacheRaw / CacheMiss）
func (t *Tracer) CacheLookup(kind string) {
	if t == nil {
		return
	}
	t.cacheLookups.WithLabelValues(kind).Inc()
}

// MuxerUpgrade 记录多路复用升级结果
func (t *Tracer) MuxerUpgrade(codec string, err error) {
	if t == nil {
		return
	}
	t.upgrades.WithLabelValues(codec, result(err)).Inc()
}

// IdentifyCompleted 记录 identify 结果
func (t *Tracer) IdentifyCompleted(err error) {
	if t == nil {
		return
	}
	t.identify.WithLabelValues(result(err)).Inc()
}

// AddStreamBytes 记录流字节数
func (t *Tracer) AddStreamBytes(proto, direction string, n int) {
	if t == nil || n <= 0 {
		return
	}
	t.streamBytes.WithLabelValues(proto, direction).Add(float64(n))
}
