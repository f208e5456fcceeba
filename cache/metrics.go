package cache

// NoopMetrics is a drop-in Metrics implementation that does nothing.
// It is safe for concurrent use and intended as the default when
// no observability backend is configured.
type NoopMetrics struct{}

func (NoopMetrics) LocalHit()          {}
func (NoopMetrics) RemoteHit()         {}
func (NoopMetrics) Miss()              {}
func (NoopMetrics) FilterReject()      {}
func (NoopMetrics) Evict(Affinity)     {}
func (NoopMetrics) Size(Affinity, int) {}

// Ensure NoopMetrics implements the Metrics interface at compile time.
var _ Metrics = NoopMetrics{}
