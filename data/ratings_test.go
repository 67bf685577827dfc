package data

import (
	"testing"

	"github.com/emzola/bookshelf/internal/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAverageRating(t *testing.T) {
	t.Run("empty set has no average", func(t *testing.T) {
		assert.Nil(t, AverageRating(nil))
		assert.Nil(t, AverageRating([]Rating{}))
		assert.Equal(t, 0, RatingCount(nil))
	})

	t.Run("mean of values", func(t *testing.T) {
		ratings := []Rating{{Value: 5}, {Value: 4}, {Value: 2}}
		avg := AverageRating(ratings)
		require.NotNil(t, avg)
		assert.InDelta(t, 11.0/3.0, *avg, 1e-12)
		assert.Equal(t, 3, RatingCount(ratings))
	})

	t.Run("independent of order", func(t *testing.T) {
		a := AverageRating([]Rating{{Value: 1}, {Value: 2}, {Value: 5}, {Value: 5}})
		b := AverageRating([]Rating{{Value: 5}, {Value: 1}, {Value: 5}, {Value: 2}})
		require.NotNil(t, a)
		require.NotNil(t, b)
		assert.Equal(t, *a, *b)
	})

	t.Run("agrees with Mean over sum and count", func(t *testing.T) {
		ratings := []Rating{{Value: 3}, {Value: 4}}
		assert.Equal(t, Mean(7, 2), AverageRating(ratings))
		assert.Nil(t, Mean(0, 0))
	})
}

func TestValidateRating(t *testing.T) {
	for value, ok := range map[int]bool{0: false, 1: true, 3: true, 5: true, 6: false, -2: false} {
		v := validator.New()
		ValidateRating(v, value)
		assert.Equal(t, ok, v.Valid(), "value %d", value)
	}
}
