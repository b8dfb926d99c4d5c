package db

import (
	"errors"
	"testing"

	"github.com/smallbiznis/formpay/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestIsDuplicateKeyErr(t *testing.T) {
	assert.False(t, IsDuplicateKeyErr(nil))
	assert.True(t, IsDuplicateKeyErr(gorm.ErrDuplicatedKey))
	assert.True(t, IsDuplicateKeyErr(errors.New(`pq: duplicate key value violates unique constraint "idx_webhook_events_event_id"`)))
	assert.True(t, IsDuplicateKeyErr(errors.New("Error 1062: Duplicate entry")))
	assert.True(t, IsDuplicateKeyErr(errors.New("UNIQUE constraint failed: webhook_events.event_id")))
	assert.False(t, IsDuplicateKeyErr(errors.New("connection refused")))
}

func TestDialect(t *testing.T) {
	for _, kind := range []string{"postgres", "mysql", "sqlite"} {
		d, err := Dialect(config.Config{DBType: kind, DBName: "formpay"})
		require.NoError(t, err, kind)
		assert.NotNil(t, d, kind)
	}
	_, err := Dialect(config.Config{DBType: "oracle"})
	assert.Error(t, err)
}
