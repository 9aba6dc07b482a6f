package chart

import (
	"encoding/json"
	"fmt"
)

// Chart points travel on the wire as two-element [t, v] arrays, the shape
// the viewer's charting library consumes directly.

func marshalPair(t int64, v float64) ([]byte, error) {
	return json.Marshal([2]float64{float64(t), v})
}

func unmarshalPair(b []byte) (int64, float64, error) {
	var pair [2]float64
	if err := json.Unmarshal(b, &pair); err != nil {
		return 0, 0, fmt.Errorf("decode chart point: %w", err)
	}
	return int64(pair[0]), pair[1], nil
}
