package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"commute/internal/domain"
)

func TestValidateAssignment(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		driverCompany  string
		vehicleCompany string
		wantWhich      string
	}{
		{"both belong", "c-1", "c-1", ""},
		{"vehicle elsewhere", "c-1", "c-2", "vehicle"},
		{"driver elsewhere", "c-2", "c-1", "driver"},
		{"both elsewhere reports vehicle first", "c-2", "c-3", "vehicle"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := ValidateAssignment("c-1",
				&domain.Driver{ID: "d", CompanyID: tt.driverCompany},
				&domain.Vehicle{ID: "v", CompanyID: tt.vehicleCompany},
			)

			if tt.wantWhich == "" {
				assert.NoError(t, err)
				return
			}

			var mismatch *MismatchError
			require.True(t, errors.As(err, &mismatch), "got %v", err)
			assert.Equal(t, tt.wantWhich, mismatch.Which)
			assert.ErrorIs(t, err, ErrReferentialMismatch)
		})
	}
}

func TestErrorsMatchSentinels(t *testing.T) {
	t.Parallel()

	assert.ErrorIs(t, &TransitionError{Entity: "trip", Current: "active"}, ErrInvalidTransition)
	assert.ErrorIs(t, &PartialFailureError{Expected: 5, Created: 2}, ErrPartialFailure)
	assert.ErrorIs(t, lookupErr("contract", ErrNotFound), ErrNotFound)
	assert.ErrorIs(t, lookupErr("contract", errors.New("conn reset")), ErrInternal)
	assert.NotErrorIs(t, lookupErr("contract", errors.New("conn reset")), ErrNotFound)
	assert.ErrorIs(t, validationErr("employees_count %d", 0), ErrValidation)
	assert.ErrorIs(t, forbidden("not owner"), ErrForbidden)
}
