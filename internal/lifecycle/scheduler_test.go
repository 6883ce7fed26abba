package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockSweeper is a mock implementation of the Sweeper interface
type MockSweeper struct {
	mock.Mock
}

func (m *MockSweeper) SweepExpirations(ctx context.Context, threshold time.Duration) (int, error) {
	args := m.Called(ctx, threshold)
	return args.Int(0), args.Error(1)
}

func TestScheduler_SweepsUntilCancelled(t *testing.T) {
	sweeper := new(MockSweeper)
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	sweeper.On("SweepExpirations", mock.Anything, thirtyDays).
		Run(func(mock.Arguments) {
			calls++
			if calls == 3 {
				cancel()
			}
		}).
		Return(0, nil)

	scheduler := NewScheduler(sweeper, time.Millisecond, thirtyDays, newTestLogger())
	err := scheduler.Start(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.GreaterOrEqual(t, calls, 3)
}

func TestScheduler_KeepsRunningAfterFailure(t *testing.T) {
	sweeper := new(MockSweeper)
	ctx, cancel := context.WithCancel(context.Background())

	sweeper.On("SweepExpirations", mock.Anything, thirtyDays).Return(0, errors.New("store unavailable")).Once()
	sweeper.On("SweepExpirations", mock.Anything, thirtyDays).
		Run(func(mock.Arguments) { cancel() }).
		Return(1, nil)

	scheduler := NewScheduler(sweeper, time.Millisecond, thirtyDays, newTestLogger())
	err := scheduler.Start(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	sweeper.AssertExpectations(t)
}
