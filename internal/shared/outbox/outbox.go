package outbox

// Message is an outbox row persisted alongside the state change that
// produced it. The worker relay reads pending rows and publishes them to
// the event bus; notification fan-out therefore never precedes a commit.
type Message struct {
	ID         string
	EventType  string
	Payload    []byte
	Status     string // pending, published, failed
	RetryCount int
}
