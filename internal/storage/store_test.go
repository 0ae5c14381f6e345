package storage

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrDataUnavailable(t *testing.T) {
	cause := errors.New("no such file")
	err := ErrDataUnavailable{Source: "playpop_.db", Err: cause}

	assert.Equal(t, "data unavailable: playpop_.db: no such file", err.Error())
	assert.True(t, IsDataUnavailable(err))
	assert.ErrorIs(t, err, cause)
}

func TestErrDataUnavailableWithoutCause(t *testing.T) {
	err := ErrDataUnavailable{Source: "shots.db"}
	assert.Equal(t, "data unavailable: shots.db", err.Error())
}

func TestErrSchemaMismatch(t *testing.T) {
	err := ErrSchemaMismatch{Table: "motions", Missing: []string{"spin", "type"}}

	assert.Equal(t, "schema mismatch: motions missing columns: spin, type", err.Error())
	assert.True(t, IsSchemaMismatch(err))
	assert.False(t, IsDataUnavailable(err))
}

func TestIsHelpersUnwrap(t *testing.T) {
	wrapped := fmt.Errorf("load sessions: %w", ErrSchemaMismatch{Table: "tb_activities"})
	assert.True(t, IsSchemaMismatch(wrapped))

	wrapped = fmt.Errorf("load shots: %w", ErrDataUnavailable{Source: "x"})
	assert.True(t, IsDataUnavailable(wrapped))
}

func TestIsHelpersFalse(t *testing.T) {
	assert.False(t, IsDataUnavailable(nil))
	assert.False(t, IsSchemaMismatch(nil))
	assert.False(t, IsSchemaMismatch(assert.AnError))
}
