package dto

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, GetHTTPStatus(ErrCodeNotFound))
	assert.Equal(t, http.StatusConflict, GetHTTPStatus(ErrCodeDuplicatePeriod))
	assert.Equal(t, http.StatusLocked, GetHTTPStatus(ErrCodeLockedPeriod))
	assert.Equal(t, http.StatusBadRequest, GetHTTPStatus(ErrCodeUnresolvedUnit))
	assert.Equal(t, http.StatusUnprocessableEntity, GetHTTPStatus(ErrCodeInvalidState))
	assert.Equal(t, http.StatusInternalServerError, GetHTTPStatus("ERR_NOBODY_KNOWS"))
}

func TestNormalizeErrorCode(t *testing.T) {
	assert.Equal(t, ErrCodeDuplicatePeriod, NormalizeErrorCode("DUPLICATE_PERIOD"))
	assert.Equal(t, ErrCodeLockedPeriod, NormalizeErrorCode("LOCKED_PERIOD"))
	assert.Equal(t, ErrCodeUnresolvedUnit, NormalizeErrorCode("UNRESOLVED_UNIT"))
	assert.Equal(t, ErrCodeNotFound, NormalizeErrorCode("NOT_FOUND"))
	assert.Equal(t, ErrCodeBadRequest, NormalizeErrorCode(ErrCodeBadRequest))
}
