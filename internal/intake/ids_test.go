package intake

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestFormatApplicationID(t *testing.T) {
	id := uuid.MustParse("a1b2c3d4-0000-4000-8000-000000000000")
	day := time.Date(2025, 1, 9, 23, 59, 0, 0, time.UTC)

	assert.Equal(t, "PROTV-20250109-A1B2C3D4", formatApplicationID(day, id))
}

func TestNewApplicationID_Unique(t *testing.T) {
	now := time.Now()
	seen := make(map[string]struct{}, 200)
	for i := 0; i < 200; i++ {
		id := NewApplicationID(now)
		assert.Regexp(t, applicationIDPattern, id)
		_, dup := seen[id]
		assert.False(t, dup, "duplicate application id %s", id)
		seen[id] = struct{}{}
	}
}

func TestNewSubmissionID(t *testing.T) {
	assert.NotEqual(t, NewSubmissionID(""), NewSubmissionID(""))
	assert.Equal(t, NewSubmissionID("order-7"), NewSubmissionID("order-7"))
	assert.NotEqual(t, NewSubmissionID("order-7"), NewSubmissionID("order-8"))

	_, err := uuid.Parse(NewSubmissionID("order-7"))
	assert.NoError(t, err)
}
