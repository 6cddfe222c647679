package kafka

import segkafka "github.com/segmentio/kafka-go"

// HeaderEventKind carries the event kind so consumers can route without
// decoding the value.
const HeaderEventKind = "event-kind"

// HeaderCarrier lets OpenTelemetry inject and extract trace context through
// Kafka message headers.
type HeaderCarrier []segkafka.Header

func (c HeaderCarrier) Get(key string) string {
	for _, h := range c {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

// Set replaces any header already stored under key.
func (c *HeaderCarrier) Set(key, value string) {
	out := (*c)[:0]
	for _, h := range *c {
		if h.Key != key {
			out = append(out, h)
		}
	}
	*c = append(out, segkafka.Header{Key: key, Value: []byte(value)})
}

func (c HeaderCarrier) Keys() []string {
	keys := make([]string, 0, len(c))
	for _, h := range c {
		keys = append(keys, h.Key)
	}
	return keys
}
