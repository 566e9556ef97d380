package valueobjects

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPosition(t *testing.T) {
	tests := []struct {
		name    string
		x, y    float64
		wantErr bool
	}{
		{name: "origin", x: 0, y: 0},
		{name: "seed root", x: 250, y: 5},
		{name: "negative", x: -150, y: -300.5},
		{name: "NaN x", x: math.NaN(), y: 0, wantErr: true},
		{name: "infinite y", x: 0, y: math.Inf(1), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos, err := NewPosition(tt.x, tt.y)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "invalid coordinates")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.x, pos.X())
			assert.Equal(t, tt.y, pos.Y())
		})
	}
}

func TestPosition_Translate(t *testing.T) {
	pos, err := NewPosition(250, 5)
	require.NoError(t, err)

	moved := pos.Translate(-100, 150)

	assert.True(t, moved.Equals(Position{x: 150, y: 155}))
	assert.True(t, pos.Equals(Position{x: 250, y: 5}), "translate must not modify the receiver")
}

func TestPosition_JSON(t *testing.T) {
	pos, err := NewPosition(12.5, -3)
	require.NoError(t, err)

	data, err := json.Marshal(pos)
	require.NoError(t, err)
	assert.JSONEq(t, `{"x":12.5,"y":-3}`, string(data))

	var decoded Position
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, decoded.Equals(pos))
}

func TestNodeKey(t *testing.T) {
	_, err := NewNodeKey("   ")
	assert.Error(t, err)

	key, err := NewNodeKey("Mammals")
	require.NoError(t, err)
	assert.Equal(t, "Mammals", key.String())
	assert.True(t, key.Equals(MustNodeKey("Mammals")))
	assert.False(t, key.IsZero())
	assert.True(t, NodeKey{}.IsZero())

	data, err := json.Marshal(key)
	require.NoError(t, err)
	assert.Equal(t, `"Mammals"`, string(data))
}
