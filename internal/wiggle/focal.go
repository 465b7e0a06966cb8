package wiggle

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// ParseFocalPoints decodes a JSON array of {"x": .., "y": ..} objects into
// exactly SectionCount focal points. Coordinates must be integral numbers;
// 100 and 100.0 are accepted, 100.5 and "100" are not.
func ParseFocalPoints(data []byte) ([SectionCount]FocalPoint, error) {
	var out [SectionCount]FocalPoint

	if len(bytes.TrimSpace(data)) == 0 {
		return out, fmt.Errorf("%w: no focal points provided", ErrMissingInput)
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return out, fmt.Errorf("%w: decode focal points: %v", ErrInvalidFocalPointValue, err)
	}
	if len(raw) == 0 {
		return out, fmt.Errorf("%w: no focal points provided", ErrMissingInput)
	}
	if len(raw) != SectionCount {
		return out, &FocalPointCountError{Got: len(raw)}
	}

	for i, item := range raw {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(item, &obj); err != nil || obj == nil {
			return out, &FocalPointValueError{Index: i, Axis: "point", Value: strings.TrimSpace(string(item))}
		}
		x, err := coordinate(obj, i, "x")
		if err != nil {
			return out, err
		}
		y, err := coordinate(obj, i, "y")
		if err != nil {
			return out, err
		}
		out[i] = FocalPoint{X: x, Y: y}
	}
	return out, nil
}

// FocalPointsFromSlice validates a slice already decoded by a caller.
func FocalPointsFromSlice(points []FocalPoint) ([SectionCount]FocalPoint, error) {
	var out [SectionCount]FocalPoint
	if len(points) == 0 {
		return out, fmt.Errorf("%w: no focal points provided", ErrMissingInput)
	}
	if len(points) != SectionCount {
		return out, &FocalPointCountError{Got: len(points)}
	}
	copy(out[:], points)
	return out, nil
}

func coordinate(obj map[string]json.RawMessage, index int, axis string) (int, error) {
	raw, ok := obj[axis]
	if !ok {
		return 0, &FocalPointValueError{Index: index, Axis: axis, Value: "missing"}
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return 0, &FocalPointValueError{Index: index, Axis: axis, Value: string(raw)}
	}

	n, ok := v.(json.Number)
	if !ok {
		return 0, &FocalPointValueError{Index: index, Axis: axis, Value: strings.TrimSpace(string(raw))}
	}
	if i, err := n.Int64(); err == nil && i >= math.MinInt32 && i <= math.MaxInt32 {
		return int(i), nil
	}
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) || f < math.MinInt32 || f > math.MaxInt32 {
		return 0, &FocalPointValueError{Index: index, Axis: axis, Value: n.String()}
	}
	return int(f), nil
}
