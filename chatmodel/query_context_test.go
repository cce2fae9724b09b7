package chatmodel

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryContext_Basics(t *testing.T) {
	t.Parallel()
	c := NewQueryContext("qid", "what is 2+2?")
	require.NotNil(t, c)
	assert.Equal(t, "qid", c.GetQueryID())
	assert.Equal(t, "what is 2+2?", c.Query())
	assert.WithinDuration(t, time.Now(), c.StartedAt(), time.Minute)

	val, ok := c.GetMetadata("not-found")
	assert.Nil(t, val)
	assert.False(t, ok)
	c.SetMetadata("foo", 1)
	v, ok := c.GetMetadata("foo")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestNewQueryContext_DefaultID(t *testing.T) {
	t.Parallel()
	c1 := NewQueryContext("", "q")
	c2 := NewQueryContext("", "q")
	assert.NotEmpty(t, c1.GetQueryID())
	assert.NotEqual(t, c1.GetQueryID(), c2.GetQueryID())
}

func TestContextPlumbing(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	assert.Nil(t, GetQueryContext(ctx))
	assert.Empty(t, GetQueryID(ctx))

	c := NewQueryContext("x", "q")
	ctx = WithQueryContext(ctx, c)
	assert.Equal(t, c, GetQueryContext(ctx))
	assert.Equal(t, "x", GetQueryID(ctx))
}
