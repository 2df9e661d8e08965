package observable

import "github.com/tailored-agentic-units/observable/observability"

// Registry event types reported to the configured telemetry observer.
const (
	EventSubscribe   observability.EventType = "registry.subscribe"
	EventUnsubscribe observability.EventType = "registry.unsubscribe"
	EventNotify      observability.EventType = "registry.notify"
	EventCompact     observability.EventType = "registry.compact"
)
