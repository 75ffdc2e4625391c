package faults

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNotFound, KindOf(NotFound("job", "j1")))
	assert.Equal(t, KindValidation, KindOf(Validationf("bad input")))
	assert.Equal(t, KindConflict, KindOf(Conflictf("taken")))
	assert.Equal(t, KindInvalidState, KindOf(InvalidState("assignment", "a1", "pending", "complete")))
	assert.Equal(t, KindUnauthorized, KindOf(Unauthorized("assignment", "a1", "c2")))
}

func TestKindOf_UnclassifiedIsInternal(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(stderrors.New("disk on fire")))
}

func TestKindOf_Wrapped(t *testing.T) {
	err := fmt.Errorf("handler: %w", NotFound("contractor", "c9"))
	assert.True(t, IsNotFound(err))
	assert.False(t, IsConflict(err))
}

func TestInternal_KeepsCause(t *testing.T) {
	sentinel := stderrors.New("row lock timeout")
	err := Internal(sentinel, "update contractor aggregate")
	assert.Equal(t, KindInternal, KindOf(err))
	assert.True(t, stderrors.Is(err, sentinel))
}

func TestInternal_NilPassthrough(t *testing.T) {
	assert.NoError(t, Internal(nil, "no-op"))
}

func TestErrorMessageCarriesEntity(t *testing.T) {
	err := InvalidState("assignment", "a42", "pending", "start")
	assert.Contains(t, err.Error(), "a42")
	assert.Contains(t, err.Error(), "pending")
}
