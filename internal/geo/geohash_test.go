package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncodeGeohash(t *testing.T) {
	tests := []struct {
		name      string
		lat, lng  float64
		precision int
		want      string
	}{
		{"seattle", 47.6062, -122.3321, 6, "c23nb6"},
		{"berlin", 52.5200, 13.4050, 6, "u33dc0"},
		{"london", 51.5074, -0.1278, 6, "gcpvj0"},
		{"precision 5", 47.6062, -122.3321, 5, "c23nb"},
		{"non-positive precision uses default", 47.6062, -122.3321, 0, "c23nb6"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EncodeGeohash(tt.lat, tt.lng, tt.precision))
		})
	}
}

func TestEncodeGeohash_PrefixStability(t *testing.T) {
	long := EncodeGeohash(-26.2041, 28.0473, 9)
	short := EncodeGeohash(-26.2041, 28.0473, 6)
	assert.Equal(t, long[:6], short)
}
