package transport

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Orientation is the 3-component rotation message on the pointing
// channel, consumed by the viewport collaborator only.
type Orientation struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// EncodeClockSample renders a clock sample as the wire payload: the
// plain decimal seconds value, nothing else. The clock channel is a
// scalar topic.
func EncodeClockSample(seconds float64) []byte {
	return []byte(strconv.FormatFloat(seconds, 'f', -1, 64))
}

// DecodeClockSample parses a clock payload. Non-numeric and non-finite
// values are rejected here so they never reach the controller; the
// controller itself accepts any finite value as ground truth.
func DecodeClockSample(data []byte) (float64, error) {
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return 0, fmt.Errorf("parse clock sample %q: %w", data, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite clock sample %q", data)
	}
	return v, nil
}

// EncodeOrientation marshals an orientation message.
func EncodeOrientation(o Orientation) ([]byte, error) {
	data, err := json.Marshal(o)
	if err != nil {
		return nil, fmt.Errorf("marshal orientation: %w", err)
	}
	return data, nil
}

// DecodeOrientation unmarshals an orientation message.
func DecodeOrientation(data []byte) (Orientation, error) {
	var o Orientation
	if err := json.Unmarshal(data, &o); err != nil {
		return Orientation{}, fmt.Errorf("unmarshal orientation: %w", err)
	}
	return o, nil
}
