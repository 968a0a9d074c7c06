package lifecycle

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fixhub-dev/fixhub-api/internal/models"
	appErrors "github.com/fixhub-dev/fixhub-api/pkg/errors"
)

func TestAllowedEdges(t *testing.T) {
	allowed := map[models.RepairStatus][]models.RepairStatus{
		models.StatusReceived:         {models.StatusInProgress, models.StatusCancelled},
		models.StatusInProgress:       {models.StatusCompleted, models.StatusCancelled},
		models.StatusCompleted:        {models.StatusReadyForDelivery},
		models.StatusReadyForDelivery: {models.StatusDelivered},
		models.StatusCancelled:        {},
		models.StatusDelivered:        {},
	}

	// Every from/to pair must agree with the table: legal edges validate,
	// everything else is rejected and typed INVALID_TRANSITION.
	for _, from := range Statuses {
		legal := make(map[models.RepairStatus]bool)
		for _, to := range allowed[from] {
			legal[to] = true
		}
		for _, to := range Statuses {
			err := Validate(from, to)
			if legal[to] {
				assert.NoError(t, err, "%s -> %s should be allowed", from, to)
				assert.True(t, CanTransition(from, to))
				continue
			}
			require.Error(t, err, "%s -> %s should be rejected", from, to)
			var appErr *appErrors.Error
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErr.Code)
			assert.False(t, CanTransition(from, to))
		}
	}
}

func TestValidateUnknownStatus(t *testing.T) {
	err := Validate(models.StatusReceived, models.RepairStatus("REPAIRED"))
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestTerminalStates(t *testing.T) {
	assert.True(t, IsTerminal(models.StatusCancelled))
	assert.True(t, IsTerminal(models.StatusDelivered))
	assert.False(t, IsTerminal(models.StatusReceived))
	assert.False(t, IsTerminal(models.StatusReadyForDelivery))

	assert.Empty(t, AllowedTargets(models.StatusCancelled))
	assert.Empty(t, AllowedTargets(models.StatusDelivered))
}

func TestValidateTerminalMessage(t *testing.T) {
	err := Validate(models.StatusDelivered, models.StatusReceived)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "terminal")
}

func TestValidateListsAllowedTargets(t *testing.T) {
	err := Validate(models.StatusReceived, models.StatusCompleted)
	require.Error(t, err)
	assert.Contains(t, err.Error(), string(models.StatusInProgress))
	assert.Contains(t, err.Error(), string(models.StatusCancelled))
}

func TestCanMarkReadyForDelivery(t *testing.T) {
	now := time.Now()
	full := 100.0

	assert.False(t, CanMarkReadyForDelivery(nil))
	assert.False(t, CanMarkReadyForDelivery(&models.Payment{TotalAmount: 100}))
	assert.False(t, CanMarkReadyForDelivery(&models.Payment{TotalAmount: 100, AdvancedPayment: &full}))
	assert.True(t, CanMarkReadyForDelivery(&models.Payment{TotalAmount: 100, AdvancedPayment: &full, PaymentDate: &now}))
}
