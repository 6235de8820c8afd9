package onebot

import (
	"encoding/json"

	"github.com/eya46/adapter-onebot/pkg/logger"
)

// Decoder classifies raw gateway payloads and turns events into their
// typed representation. Payloads without a post_type field are API-call
// results and are handed to the ResultStore instead.
type Decoder struct {
	results *ResultStore
}

func NewDecoder(results *ResultStore) *Decoder {
	return &Decoder{results: results}
}

// ClassifyAndDecode resolves one raw payload. It returns the decoded
// event, or nil when the payload produced no event: non-object payloads
// are ignored, API results go to the result store, and undecodable
// events are logged and dropped. The connection delivering the payload
// is never affected.
func (d *Decoder) ClassifyAndDecode(data []byte) Event {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		logger.ErrorCF("decode", "Payload is not a JSON object", map[string]interface{}{
			"error": err.Error(),
			"raw":   string(data),
		})
		return nil
	}

	if _, ok := fields["post_type"]; !ok {
		if d.results != nil {
			d.results.Resolve(data)
		}
		return nil
	}

	key := taxonomyKey(fields)
	for _, factory := range lookupEvent(key) {
		ev := factory()
		if err := json.Unmarshal(data, ev); err != nil {
			logger.DebugCF("decode", "Event parser error", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
			continue
		}
		if err := ev.Check(); err != nil {
			logger.DebugCF("decode", "Event candidate rejected", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
			continue
		}
		return ev
	}

	// Unreachable for well-formed envelopes: the BaseEvent fallback
	// accepts anything carrying a post_type.
	logger.ErrorCF("decode", "Failed to parse event", map[string]interface{}{
		"key": key,
		"raw": string(data),
	})
	return nil
}

// taxonomyKey derives "post_type[.{post_type}_type][.sub_type]" from the
// raw object. Segments are appended only when present and non-empty.
func taxonomyKey(fields map[string]json.RawMessage) string {
	post := stringField(fields, "post_type")
	detail := stringField(fields, post+"_type")
	sub := stringField(fields, "sub_type")
	return joinKey(post, detail, sub)
}

func stringField(fields map[string]json.RawMessage, name string) string {
	raw, ok := fields[name]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}
