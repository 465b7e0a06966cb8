package wiggle

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFocalPoints(t *testing.T) {
	points, err := ParseFocalPoints([]byte(`[{"x":1000,"y":1000},{"x":3000,"y":2000},{"x":5000,"y":3000.0}]`))
	require.NoError(t, err)

	assert.Equal(t, [SectionCount]FocalPoint{
		{X: 1000, Y: 1000},
		{X: 3000, Y: 2000},
		{X: 5000, Y: 3000},
	}, points)
}

func TestParseFocalPointsNegativeAndOutside(t *testing.T) {
	points, err := ParseFocalPoints([]byte(`[{"x":-50,"y":0},{"x":0,"y":-1},{"x":99999,"y":99999}]`))
	require.NoError(t, err)
	assert.Equal(t, FocalPoint{X: -50, Y: 0}, points[0])
	assert.Equal(t, FocalPoint{X: 99999, Y: 99999}, points[2])
}

func TestParseFocalPointsCount(t *testing.T) {
	_, err := ParseFocalPoints([]byte(`[{"x":1000,"y":1000},{"x":2000,"y":2000}]`))
	require.Error(t, err)

	assert.True(t, errors.Is(err, ErrInvalidFocalPointCount))
	var countErr *FocalPointCountError
	require.True(t, errors.As(err, &countErr))
	assert.Equal(t, 2, countErr.Got)
	assert.Contains(t, err.Error(), "3 focal points")
}

func TestParseFocalPointsCountBeforeShape(t *testing.T) {
	for _, body := range []string{`[1,2]`, `[{"x":1,"y":1},"a",null,4]`} {
		_, err := ParseFocalPoints([]byte(body))
		assert.True(t, errors.Is(err, ErrInvalidFocalPointCount), "body %s: %v", body, err)
	}
}

func TestParseFocalPointsNonObjectEntry(t *testing.T) {
	for _, body := range []string{
		`[{"x":1,"y":1},2,{"x":3,"y":3}]`,
		`[{"x":1,"y":1},null,{"x":3,"y":3}]`,
	} {
		_, err := ParseFocalPoints([]byte(body))
		require.Error(t, err, body)
		var valueErr *FocalPointValueError
		require.True(t, errors.As(err, &valueErr), body)
		assert.Equal(t, 1, valueErr.Index)
		assert.Equal(t, "point", valueErr.Axis)
	}
}

func TestParseFocalPointsMissing(t *testing.T) {
	for _, body := range []string{"", "   ", "[]"} {
		_, err := ParseFocalPoints([]byte(body))
		assert.True(t, errors.Is(err, ErrMissingInput), "body %q", body)
	}
}

func TestParseFocalPointsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		body string
		axis string
	}{
		{"fraction", `[{"x":1.5,"y":1},{"x":2,"y":2},{"x":3,"y":3}]`, "x"},
		{"string", `[{"x":1,"y":"1"},{"x":2,"y":2},{"x":3,"y":3}]`, "y"},
		{"missing", `[{"x":1,"y":1},{"x":2},{"x":3,"y":3}]`, "y"},
		{"null coordinate", `[{"x":1,"y":1},{"x":2,"y":2},{"x":null,"y":3}]`, "x"},
		{"bool", `[{"x":true,"y":1},{"x":2,"y":2},{"x":3,"y":3}]`, "x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFocalPoints([]byte(tt.body))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidFocalPointValue))

			var valueErr *FocalPointValueError
			require.True(t, errors.As(err, &valueErr))
			assert.Equal(t, tt.axis, valueErr.Axis)
		})
	}
}

func TestParseFocalPointsMalformed(t *testing.T) {
	_, err := ParseFocalPoints([]byte(`{not json`))
	assert.True(t, errors.Is(err, ErrInvalidFocalPointValue))
	assert.True(t, IsValidation(err))
}

func TestFocalPointsFromSlice(t *testing.T) {
	points, err := FocalPointsFromSlice([]FocalPoint{{1, 2}, {3, 4}, {5, 6}})
	require.NoError(t, err)
	assert.Equal(t, FocalPoint{X: 5, Y: 6}, points[2])

	_, err = FocalPointsFromSlice([]FocalPoint{{1, 2}})
	assert.True(t, errors.Is(err, ErrInvalidFocalPointCount))

	_, err = FocalPointsFromSlice(nil)
	assert.True(t, errors.Is(err, ErrMissingInput))
}
