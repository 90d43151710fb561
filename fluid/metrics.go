package fluid

// Metrics receives events from a Tree. Implementations must be safe for
// concurrent use.
type Metrics interface {
	NodeCreated()
	LeafSelected(depth int)
	Backpropagated(depth int)
	BackpropFailed()
	Persisted(op string, err error)
}

// NopMetrics discards every event.
type NopMetrics struct{}

func (NopMetrics) NodeCreated()            {}
func (NopMetrics) LeafSelected(int)        {}
func (NopMetrics) Backpropagated(int)      {}
func (NopMetrics) BackpropFailed()         {}
func (NopMetrics) Persisted(string, error) {}
