package redis_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenantkit/pkg/redis"
	"github.com/dmitrymomot/tenantkit/pkg/tenantcache"
)

func TestDeleteError(t *testing.T) {
	t.Parallel()

	cause := errors.New("READONLY You can't write against a read only replica")
	var err error = &redis.DeleteError{Failed: 2, Err: cause}

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "2 key deletes failed")

	var partial tenantcache.PartialDeleteError
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, 2, partial.FailedKeys())
}
