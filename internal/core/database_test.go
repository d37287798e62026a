// AngelaMos | 2026
// database_test.go

package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestJitteredDuration(t *testing.T) {
	assert.Equal(t, time.Duration(0), jitteredDuration(0))
	assert.Equal(t, 3*time.Nanosecond, jitteredDuration(3))

	for range 20 {
		d := jitteredDuration(time.Hour)
		assert.GreaterOrEqual(t, d, time.Hour)
		assert.Less(t, d, time.Hour+time.Hour/7)
	}
}
