package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOpenRejectsBadDSN(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := Open(ctx, "postgres://nobody@127.0.0.1:1/none?sslmode=disable&connect_timeout=1")
	assert.Error(t, err)
}

func TestNullHelpers(t *testing.T) {
	assert.Nil(t, nullID(0))
	assert.Equal(t, int64(4), *nullID(4))
	assert.Nil(t, nullTime(time.Time{}))
	est := time.FixedZone("EST", -5*3600)
	got := nullTime(time.Date(2025, 5, 12, 4, 0, 0, 0, est))
	assert.Equal(t, time.Date(2025, 5, 12, 9, 0, 0, 0, time.UTC), *got)
	assert.True(t, utc(nil).IsZero())
	assert.Zero(t, deref(nil))
}
