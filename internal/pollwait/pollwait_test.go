package pollwait

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUntilSucceedsWhenConditionBecomesTrue(t *testing.T) {
	calls := 0
	err := Until(context.Background(), time.Second, 5*time.Millisecond, func() (bool, error) {
		calls++
		return calls >= 3, nil
	})
	assert.NoError(t, err)
	assert.GreaterOrEqual(t, calls, 3)
}

func TestUntilTimesOut(t *testing.T) {
	err := Until(context.Background(), 20*time.Millisecond, 5*time.Millisecond, func() (bool, error) {
		return false, nil
	})
	assert.True(t, errors.Is(err, ErrTimeout))
}

func TestUntilPropagatesCheckError(t *testing.T) {
	boom := errors.New("boom")
	err := Until(context.Background(), time.Second, 5*time.Millisecond, func() (bool, error) {
		return false, boom
	})
	assert.True(t, errors.Is(err, boom))
}
