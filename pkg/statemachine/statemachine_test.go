package statemachine_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vianajose7/faaxis/pkg/statemachine"
)

const (
	stateAwaitingPassword = statemachine.StringState("awaiting_password")
	stateAwaitingFactor   = statemachine.StringState("awaiting_second_factor")
	stateElevated         = statemachine.StringState("elevated")

	eventPasswordVerified = statemachine.StringEvent("password_verified")
	eventFactorVerified   = statemachine.StringEvent("second_factor_verified")
)

func newLoginMachine(t *testing.T, opts ...statemachine.Option) *statemachine.StateMachine {
	t.Helper()
	base := []statemachine.Option{
		statemachine.WithTransition(stateAwaitingPassword, stateAwaitingFactor, eventPasswordVerified, nil, nil),
		statemachine.WithTransition(stateAwaitingFactor, stateElevated, eventFactorVerified, nil, nil),
	}
	sm, err := statemachine.New(stateAwaitingPassword, append(base, opts...)...)
	require.NoError(t, err)
	return sm
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("nil initial state", func(t *testing.T) {
		t.Parallel()
		_, err := statemachine.New(nil)
		require.Error(t, err)
	})

	t.Run("starts in initial state", func(t *testing.T) {
		t.Parallel()
		sm := newLoginMachine(t)
		assert.Equal(t, stateAwaitingPassword, sm.Current())
	})
}

func TestFire(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("walks the full flow", func(t *testing.T) {
		t.Parallel()
		sm := newLoginMachine(t)

		require.NoError(t, sm.Fire(ctx, eventPasswordVerified, nil))
		assert.Equal(t, stateAwaitingFactor, sm.Current())

		require.NoError(t, sm.Fire(ctx, eventFactorVerified, nil))
		assert.Equal(t, stateElevated, sm.Current())
	})

	t.Run("steps cannot be skipped", func(t *testing.T) {
		t.Parallel()
		sm := newLoginMachine(t)

		err := sm.Fire(ctx, eventFactorVerified, nil)
		require.Error(t, err)
		assert.True(t, statemachine.IsNoTransitionAvailableError(err))
		assert.Equal(t, stateAwaitingPassword, sm.Current())
	})

	t.Run("guard rejection blocks transition", func(t *testing.T) {
		t.Parallel()
		deny := func(ctx context.Context, from statemachine.State, event statemachine.Event, data any) bool {
			return false
		}
		sm, err := statemachine.New(stateAwaitingPassword,
			statemachine.WithTransition(stateAwaitingPassword, stateAwaitingFactor, eventPasswordVerified,
				[]statemachine.Guard{deny}, nil),
		)
		require.NoError(t, err)

		err = sm.Fire(ctx, eventPasswordVerified, nil)
		require.Error(t, err)
		assert.True(t, statemachine.IsTransitionRejectedError(err))
	})

	t.Run("action error aborts transition", func(t *testing.T) {
		t.Parallel()
		boom := func(ctx context.Context, from, to statemachine.State, event statemachine.Event, data any) error {
			return errors.New("side effect failed")
		}
		sm, err := statemachine.New(stateAwaitingPassword,
			statemachine.WithTransition(stateAwaitingPassword, stateAwaitingFactor, eventPasswordVerified,
				nil, []statemachine.Action{boom}),
		)
		require.NoError(t, err)

		require.Error(t, sm.Fire(ctx, eventPasswordVerified, nil))
		assert.Equal(t, stateAwaitingPassword, sm.Current())
	})

	t.Run("first passing guard wins", func(t *testing.T) {
		t.Parallel()
		allow := func(ctx context.Context, from statemachine.State, event statemachine.Event, data any) bool {
			return data == "allowed"
		}
		sm, err := statemachine.New(stateAwaitingPassword,
			statemachine.WithTransition(stateAwaitingPassword, stateElevated, eventPasswordVerified,
				[]statemachine.Guard{allow}, nil),
			statemachine.WithTransition(stateAwaitingPassword, stateAwaitingFactor, eventPasswordVerified, nil, nil),
		)
		require.NoError(t, err)

		require.NoError(t, sm.Fire(ctx, eventPasswordVerified, "allowed"))
		assert.Equal(t, stateElevated, sm.Current())
	})
}

func TestCanFire(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	sm := newLoginMachine(t)
	assert.True(t, sm.CanFire(ctx, eventPasswordVerified, nil))
	assert.False(t, sm.CanFire(ctx, eventFactorVerified, nil))
	assert.False(t, sm.CanFire(ctx, nil, nil))
}

func TestReset(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	sm := newLoginMachine(t)
	require.NoError(t, sm.Fire(ctx, eventPasswordVerified, nil))
	require.Equal(t, stateAwaitingFactor, sm.Current())

	sm.Reset()
	assert.Equal(t, stateAwaitingPassword, sm.Current())
}
