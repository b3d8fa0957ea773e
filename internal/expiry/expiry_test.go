package expiry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"smart-bus/internal/apperr"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/testsuite"
	"go.uber.org/zap"
)

type fakeExpirer struct {
	mu    sync.Mutex
	calls []uuid.UUID
	fired chan uuid.UUID
	err   error
}

func newFakeExpirer() *fakeExpirer {
	return &fakeExpirer{fired: make(chan uuid.UUID, 8)}
}

func (f *fakeExpirer) ExpireBooking(_ context.Context, id uuid.UUID) (bool, error) {
	f.mu.Lock()
	f.calls = append(f.calls, id)
	f.mu.Unlock()
	f.fired <- id
	if f.err != nil {
		return false, f.err
	}
	return true, nil
}

func (f *fakeExpirer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type HoldWorkflowTestSuite struct {
	suite.Suite
	testsuite.WorkflowTestSuite
	env     *testsuite.TestWorkflowEnvironment
	expirer *fakeExpirer
}

func TestHoldWorkflowTestSuite(t *testing.T) {
	suite.Run(t, new(HoldWorkflowTestSuite))
}

func (s *HoldWorkflowTestSuite) SetupTest() {
	s.env = s.NewTestWorkflowEnvironment()
	s.expirer = newFakeExpirer()
	acts := NewActivities(s.expirer, zap.NewNop())
	s.env.RegisterActivityWithOptions(acts.ExpireHold, activity.RegisterOptions{Name: ActivityName})
}

func (s *HoldWorkflowTestSuite) TestDeadlineExpiresBooking() {
	bookingID := uuid.New()

	s.env.ExecuteWorkflow(SeatHoldExpiryWorkflow, HoldInput{
		BookingID: bookingID.String(),
		ExpiresAt: s.env.Now().Add(15 * time.Minute),
	})

	s.Require().True(s.env.IsWorkflowCompleted())
	s.Require().NoError(s.env.GetWorkflowError())

	var res HoldResult
	s.Require().NoError(s.env.GetWorkflowResult(&res))
	s.True(res.Expired)
	s.False(res.Settled)
	s.Equal(1, s.expirer.count())
}

func (s *HoldWorkflowTestSuite) TestSettledSignalCancelsTimer() {
	bookingID := uuid.New()

	s.env.RegisterDelayedCallback(func() {
		s.env.SignalWorkflow(SignalSettled, SettledSignal{BookingID: bookingID.String()})
	}, 5*time.Minute)

	s.env.ExecuteWorkflow(SeatHoldExpiryWorkflow, HoldInput{
		BookingID: bookingID.String(),
		ExpiresAt: s.env.Now().Add(15 * time.Minute),
	})

	s.Require().True(s.env.IsWorkflowCompleted())
	var res HoldResult
	s.Require().NoError(s.env.GetWorkflowResult(&res))
	s.True(res.Settled)
	s.Zero(s.expirer.count())
}

func (s *HoldWorkflowTestSuite) TestPastDeadlineRunsImmediately() {
	s.env.ExecuteWorkflow(SeatHoldExpiryWorkflow, HoldInput{
		BookingID: uuid.NewString(),
		ExpiresAt: s.env.Now().Add(-time.Minute),
	})

	s.Require().True(s.env.IsWorkflowCompleted())
	s.Equal(1, s.expirer.count())
}

func (s *HoldWorkflowTestSuite) TestInvalidBookingIDFailsWithoutRetry() {
	s.env.ExecuteWorkflow(SeatHoldExpiryWorkflow, HoldInput{
		BookingID: "not-a-uuid",
		ExpiresAt: s.env.Now().Add(time.Minute),
	})

	s.Require().True(s.env.IsWorkflowCompleted())
	s.Error(s.env.GetWorkflowError())
	s.Zero(s.expirer.count())
}

func TestExpireHoldTreatsMissingBookingAsDone(t *testing.T) {
	exp := newFakeExpirer()
	exp.err = apperr.NotFound("booking", "x")
	acts := NewActivities(exp, zap.NewNop())

	expired, err := acts.ExpireHold(context.Background(), uuid.NewString())
	require.NoError(t, err)
	assert.False(t, expired)

	exp.err = errors.New("storage down")
	_, err = acts.ExpireHold(context.Background(), uuid.NewString())
	assert.Error(t, err)
}

func TestLocalSchedulerFires(t *testing.T) {
	exp := newFakeExpirer()
	s := NewLocalScheduler(exp, zap.NewNop())
	defer s.Stop()

	id := uuid.New()
	require.NoError(t, s.ScheduleExpiry(context.Background(), id, time.Now().Add(20*time.Millisecond)))

	select {
	case got := <-exp.fired:
		assert.Equal(t, id, got)
	case <-time.After(2 * time.Second):
		t.Fatal("hold timer never fired")
	}
	assert.Eventually(t, func() bool { return s.Pending() == 0 }, time.Second, 10*time.Millisecond)
}

func TestLocalSchedulerSettledDisarms(t *testing.T) {
	exp := newFakeExpirer()
	s := NewLocalScheduler(exp, zap.NewNop())
	defer s.Stop()

	id := uuid.New()
	require.NoError(t, s.ScheduleExpiry(context.Background(), id, time.Now().Add(50*time.Millisecond)))
	require.NoError(t, s.Settled(context.Background(), id))
	assert.Zero(t, s.Pending())

	time.Sleep(150 * time.Millisecond)
	assert.Zero(t, exp.count())
}
