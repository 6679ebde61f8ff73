package provision

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLifecycle(t *testing.T) {
	t.Parallel()

	t.Run("happy path", func(t *testing.T) {
		t.Parallel()

		lc := newLifecycle()
		require.NoError(t, lc.fire(eventSchemaCreated))
		require.NoError(t, lc.fire(eventMigrated))
		require.NoError(t, lc.fire(eventCommit))
		assert.Equal(t, StageCommitted, lc.Stage())
		assert.True(t, lc.Stage().Terminal())
	})

	t.Run("failure from every active stage ends dropped", func(t *testing.T) {
		t.Parallel()

		for _, steps := range [][]event{
			nil,
			{eventSchemaCreated},
			{eventSchemaCreated, eventMigrated},
		} {
			lc := newLifecycle()
			for _, e := range steps {
				require.NoError(t, lc.fire(e))
			}
			require.NoError(t, lc.fire(eventFail))
			assert.Equal(t, StageRollingBack, lc.Stage())
			assert.False(t, lc.Stage().Terminal())
			require.NoError(t, lc.fire(eventCleanedUp))
			assert.Equal(t, StageDropped, lc.Stage())
		}
	})

	t.Run("terminal stages reject events", func(t *testing.T) {
		t.Parallel()

		lc := newLifecycle()
		require.NoError(t, lc.fire(eventSchemaCreated))
		require.NoError(t, lc.fire(eventMigrated))
		require.NoError(t, lc.fire(eventCommit))

		assert.ErrorIs(t, lc.fire(eventFail), ErrInvalidTransition)
		assert.Panics(t, func() { lc.must(eventFail) })
	})

	t.Run("cannot skip stages", func(t *testing.T) {
		t.Parallel()

		lc := newLifecycle()
		assert.ErrorIs(t, lc.fire(eventCommit), ErrInvalidTransition)
		assert.Equal(t, StageNotStarted, lc.Stage())
	})
}
