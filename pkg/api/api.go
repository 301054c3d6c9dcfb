// Package api defines the request and response messages of the
// splitledger.v1 Connect services.
//
// Messages are plain structs encoded as JSON by Codec, so clients can call
// the services with any HTTP client using the Connect protocol:
//
//	curl -H 'Content-Type: application/json' -H 'Authorization: Bearer ...' \
//	  -d '{"event_id":"..."}' http://localhost:8080/splitledger.v1.LedgerService/GetSettlement
//
// Money fields ending in _minor are integer minor units. Balance and debt
// amounts are hundredths of the base currency, with a two-decimal string
// copy for display.
package api

import "encoding/json"

// Codec is the JSON connect.Codec used by both handlers and clients.
type Codec struct{}

// Name implements connect.Codec. It replaces Connect's protobuf JSON codec.
func (Codec) Name() string { return "json" }

// Marshal implements connect.Codec.
func (Codec) Marshal(msg any) ([]byte, error) { return json.Marshal(msg) }

// Unmarshal implements connect.Codec. An empty body decodes to the zero message.
func (Codec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, msg)
}
