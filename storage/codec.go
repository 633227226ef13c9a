package storage

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/fxamacker/cbor/v2"
)

// keyMode encodes queries for hashing. Core Deterministic Encoding sorts map
// keys, so sets built in any order encode identically. Times are encoded as
// epoch values so equal instants in different zones give the same key.
var keyMode cbor.EncMode

// payloadMode encodes cached values for persistence. Times keep nanosecond
// precision and their offset.
var payloadMode cbor.EncMode

var decMode cbor.DecMode

func init() {
	var err error

	keyOptions := cbor.CoreDetEncOptions()
	keyOptions.Time = cbor.TimeUnixDynamic
	keyMode, err = keyOptions.EncMode()
	if err != nil {
		panic("storage: CBOR key encoder initialization failed: " + err.Error())
	}

	payloadOptions := cbor.CoreDetEncOptions()
	payloadOptions.Time = cbor.TimeRFC3339Nano
	payloadMode, err = payloadOptions.EncMode()
	if err != nil {
		panic("storage: CBOR payload encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("storage: CBOR decoder initialization failed: " + err.Error())
	}
}

// queryEnvelope keeps queries of different types with identical fields
// from colliding.
type queryEnvelope struct {
	Type  string `cbor:"t"`
	Query any    `cbor:"q"`
}

// QueryKey returns the structural identity of a query: equal queries give
// equal keys, whatever order their sets were populated in.
func QueryKey(query any) (string, error) {
	data, err := keyMode.Marshal(queryEnvelope{
		Type:  fmt.Sprintf("%T", query),
		Query: query,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode query: %w", err)
	}
	return computeHash(data), nil
}

// computeHash uses xxHash: non-cryptographic, but keys only need to be
// stable and well distributed.
func computeHash(data []byte) string {
	h := xxhash.Sum64(data)
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], h)
	return hex.EncodeToString(buf[:])
}

// encodePayload and decodePayload move cached values in and out of
// persistent storage.
func encodePayload(v any) ([]byte, error) {
	return payloadMode.Marshal(v)
}

func decodePayload(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}
