package apperr

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMatchesOnKind(t *testing.T) {
	err := fmt.Errorf("load board: %w", NotFound("Board not found"))

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrAccessDenied))
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.Equal(t, "Board not found", Message(err, "fallback"))
}

func TestMessageHidesInternalCauses(t *testing.T) {
	err := Wrap(KindInternal, "pq: relation does not exist", sql.ErrConnDone)

	assert.Equal(t, KindInternal, KindOf(err))
	assert.Equal(t, "Failed to load board", Message(err, "Failed to load board"))
	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))
	assert.ErrorIs(t, err, sql.ErrConnDone)
}
