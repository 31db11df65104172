package types

import (
	"errors"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	err := NewAppError(ErrNetwork, "connection refused", nil)
	if err.Error() != "connection refused" {
		t.Errorf("Error() = %q", err.Error())
	}

	detailed := NewAppErrorWithDetails(ErrAPICall, "request failed", "status 503", nil)
	if detailed.Error() != "request failed: status 503" {
		t.Errorf("Error() with details = %q", detailed.Error())
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("underlying")
	err := NewAppError(ErrInternal, "wrapper", cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the cause through Unwrap")
	}

	var appErr *AppError
	if !errors.As(error(err), &appErr) {
		t.Error("errors.As should match *AppError")
	}
	if appErr.Code != ErrInternal {
		t.Errorf("Code = %q", appErr.Code)
	}
}
