package reading_test

import (
	"testing"

	"github.com/UnknownOlympus/tracksheet/internal/models"
	"github.com/UnknownOlympus/tracksheet/internal/reading"
	"github.com/stretchr/testify/assert"
)

func TestDistance(t *testing.T) {
	t.Parallel()

	durban := models.Reading{Latitude: -29.8587, Longitude: 31.0218}
	capeTown := models.Reading{Latitude: -33.9249, Longitude: 18.4241}

	t.Run("same point is zero", func(t *testing.T) {
		t.Parallel()
		assert.InDelta(t, 0.0, reading.Distance(durban, durban), 1e-9)
	})

	t.Run("symmetric", func(t *testing.T) {
		t.Parallel()
		assert.InDelta(t, reading.Distance(durban, capeTown), reading.Distance(capeTown, durban), 1e-6)
	})

	t.Run("one degree of longitude on the equator", func(t *testing.T) {
		t.Parallel()
		d := reading.Distance(models.Reading{}, models.Reading{Longitude: 1})
		assert.InDelta(t, 111319.49, d, 0.01)
	})

	t.Run("short hop on the equator", func(t *testing.T) {
		t.Parallel()
		d := reading.Distance(models.Reading{}, models.Reading{Longitude: 0.0001})
		assert.InDelta(t, 11.13, d, 0.01)
	})

	t.Run("durban to cape town", func(t *testing.T) {
		t.Parallel()
		d := reading.Distance(durban, capeTown)
		if d < 1_250_000 || d > 1_300_000 {
			t.Fatalf("unexpected distance: %v", d)
		}
	})
}
