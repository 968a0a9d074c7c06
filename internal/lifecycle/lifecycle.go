// Package lifecycle is the single authority on repair status changes.
// Every mutation path, admin or technician, must consult this table;
// there is deliberately no way to write an arbitrary status.
package lifecycle

import (
	"fmt"
	"strings"

	"github.com/fixhub-dev/fixhub-api/internal/models"
	appErrors "github.com/fixhub-dev/fixhub-api/pkg/errors"
)

// edges maps each status to the set of statuses it may move to.
// CANCELLED and DELIVERED are terminal.
var edges = map[models.RepairStatus][]models.RepairStatus{
	models.StatusReceived:         {models.StatusInProgress, models.StatusCancelled},
	models.StatusInProgress:       {models.StatusCompleted, models.StatusCancelled},
	models.StatusCompleted:        {models.StatusReadyForDelivery},
	models.StatusReadyForDelivery: {models.StatusDelivered},
	models.StatusCancelled:        {},
	models.StatusDelivered:        {},
}

// Statuses lists every known status in lifecycle order.
var Statuses = []models.RepairStatus{
	models.StatusReceived,
	models.StatusInProgress,
	models.StatusCompleted,
	models.StatusReadyForDelivery,
	models.StatusDelivered,
	models.StatusCancelled,
}

// IsKnown reports whether the status is part of the lifecycle.
func IsKnown(status models.RepairStatus) bool {
	_, ok := edges[status]
	return ok
}

// IsTerminal reports whether the status has no outgoing transitions.
func IsTerminal(status models.RepairStatus) bool {
	targets, ok := edges[status]
	return ok && len(targets) == 0
}

// AllowedTargets returns the valid next statuses for the given status.
func AllowedTargets(from models.RepairStatus) []models.RepairStatus {
	targets := edges[from]
	out := make([]models.RepairStatus, len(targets))
	copy(out, targets)
	return out
}

// CanTransition reports whether from -> to is a legal edge.
func CanTransition(from, to models.RepairStatus) bool {
	for _, target := range edges[from] {
		if target == to {
			return true
		}
	}
	return false
}

// Validate returns a typed error when from -> to is not a legal edge.
// The message names the current status and its allowed targets so the
// caller can re-render options.
func Validate(from, to models.RepairStatus) error {
	if !IsKnown(to) {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown status: %s", to))
	}
	if CanTransition(from, to) {
		return nil
	}
	targets := edges[from]
	if len(targets) == 0 {
		return appErrors.Clone(appErrors.ErrInvalidTransition,
			fmt.Sprintf("status %s is terminal", from))
	}
	names := make([]string, len(targets))
	for i, t := range targets {
		names[i] = string(t)
	}
	return appErrors.Clone(appErrors.ErrInvalidTransition,
		fmt.Sprintf("cannot move from %s to %s; allowed: %s", from, to, strings.Join(names, ", ")))
}

// CanMarkReadyForDelivery is the explicit payment precondition for the
// COMPLETED -> READY_FOR_DELIVERY edge. Enforcement is a deployment
// policy; the function itself is the single definition of "settled".
func CanMarkReadyForDelivery(payment *models.Payment) bool {
	return payment.IsPaid()
}
