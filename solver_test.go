package captcha

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend is a scripted Backend for solver and poll-loop tests.
type fakeBackend struct {
	name          string
	submitErr     error
	pollErr       error
	statuses      []PollStatus // consumed one per Poll; empty means ready
	alwaysPending bool
	solution      string
	balance       float64
	balanceErr    error

	submits int
	polls   int
}

func (f *fakeBackend) Name() string { return f.name }

func (f *fakeBackend) Submit(ctx context.Context, req Request) (JobHandle, error) {
	f.submits++
	if f.submitErr != nil {
		return "", f.submitErr
	}
	return JobHandle(f.name + "-job"), nil
}

func (f *fakeBackend) Poll(ctx context.Context, handle JobHandle) (PollStatus, error) {
	f.polls++
	if f.pollErr != nil {
		return PollStatus{}, f.pollErr
	}
	if f.alwaysPending {
		return PollStatus{State: StatePending}, nil
	}
	if len(f.statuses) > 0 {
		st := f.statuses[0]
		f.statuses = f.statuses[1:]
		return st, nil
	}
	return PollStatus{State: StateReady, Solution: f.solution}, nil
}

func (f *fakeBackend) Balance(ctx context.Context) (float64, error) {
	if f.balanceErr != nil {
		return 0, f.balanceErr
	}
	return f.balance, nil
}

func testSolver(backends ...Backend) *Solver {
	return &Solver{backends: backends, timeout: time.Second, interval: time.Millisecond}
}

func TestSolveFirstSuccessWins(t *testing.T) {
	first := &fakeBackend{name: "first", solution: "token-1"}
	second := &fakeBackend{name: "second", solution: "token-2"}

	solution, err := testSolver(first, second).Solve(context.Background(), NewHCaptcha("key", "https://example.com"))
	require.NoError(t, err)
	assert.Equal(t, "token-1", solution)
	assert.Equal(t, 1, first.submits)
	assert.Equal(t, 0, second.submits, "later services must not be tried after a success")
}

func TestSolveFallsBackOnSubmitError(t *testing.T) {
	first := &fakeBackend{name: "first", submitErr: backendErr("first", ErrSubmission, nil, "invalid key")}
	second := &fakeBackend{name: "second", solution: "token-2"}

	solution, err := testSolver(first, second).Solve(context.Background(), NewHCaptcha("key", "https://example.com"))
	require.NoError(t, err)
	assert.Equal(t, "token-2", solution)
	assert.Equal(t, 1, first.submits)
}

func TestSolveFallsBackOnPollError(t *testing.T) {
	first := &fakeBackend{name: "first", pollErr: backendErr("first", ErrTaskFailed, nil, "unsolvable")}
	second := &fakeBackend{name: "second", solution: "token-2"}

	solution, err := testSolver(first, second).Solve(context.Background(), NewRecaptchaV2("key", "https://example.com"))
	require.NoError(t, err)
	assert.Equal(t, "token-2", solution)
}

func TestSolveAllBackendsFailed(t *testing.T) {
	first := &fakeBackend{name: "first", submitErr: backendErr("first", ErrSubmission, nil, "invalid key")}
	second := &fakeBackend{name: "second", submitErr: backendErr("second", ErrSubmission, nil, "out of funds")}

	_, err := testSolver(first, second).Solve(context.Background(), NewHCaptcha("key", "https://example.com"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAllBackendsFailed)
	assert.Contains(t, err.Error(), "out of funds", "must carry the last service's error")
}

func TestSolveCanceledContextAbortsChain(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	first := &fakeBackend{name: "first", pollErr: ctx.Err()}
	second := &fakeBackend{name: "second", solution: "token-2"}

	_, err := testSolver(first, second).Solve(ctx, NewHCaptcha("key", "https://example.com"))
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, second.submits, "cancellation must not fall back to the next service")
}

func TestNewNoValidServices(t *testing.T) {
	_, err := New(Config{Services: []ServiceConfig{{Service: "bogus", APIKey: "x"}}})
	require.ErrorIs(t, err, ErrNoValidServices)

	_, err = New(Config{})
	require.ErrorIs(t, err, ErrNoValidServices)
}

func TestNewSkipsUnknownServices(t *testing.T) {
	solver, err := New(Config{Services: []ServiceConfig{
		{Service: "bogus", APIKey: "x"},
		{Service: "2captcha", APIKey: "key"},
		{Service: "Anti-Captcha", APIKey: "key"}, // names are case-insensitive
	}})
	require.NoError(t, err)

	backends := solver.Backends()
	require.Len(t, backends, 2)
	assert.Equal(t, ServiceTwoCaptcha, backends[0].Name())
	assert.Equal(t, ServiceAntiCaptcha, backends[1].Name())
}

func TestNewBadDeathByCaptchaCredential(t *testing.T) {
	_, err := New(Config{Services: []ServiceConfig{
		{Service: "deathbycaptcha", APIKey: "no-separator"},
	}})
	require.ErrorIs(t, err, ErrBadCredential)
}

func TestNewDefaults(t *testing.T) {
	solver, err := New(Config{Services: []ServiceConfig{{Service: "2captcha", APIKey: "key"}}})
	require.NoError(t, err)
	assert.Equal(t, DefaultTimeout, solver.timeout)
	assert.Equal(t, DefaultPollInterval, solver.interval)
}

func TestBalancesDegradePerService(t *testing.T) {
	ok1 := &fakeBackend{name: "first", balance: 1.25}
	bad := &fakeBackend{name: "second", balanceErr: backendErr("second", ErrBalance, nil, "auth failed")}
	ok2 := &fakeBackend{name: "third", balance: 9.5}

	balances := testSolver(ok1, bad, ok2).Balances(context.Background())
	require.Len(t, balances, 3)
	assert.Equal(t, 1.25, balances["first"].Amount)
	assert.NoError(t, balances["first"].Err)
	assert.ErrorIs(t, balances["second"].Err, ErrBalance)
	assert.Equal(t, 9.5, balances["third"].Amount)
	assert.NoError(t, balances["third"].Err)
}
