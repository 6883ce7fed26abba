package lifecycle

import (
	apperrors "github.com/startupjobs/jobboard-service/internal/errors"
	"github.com/startupjobs/jobboard-service/internal/models"
)

// transitions lists the legal next states for each status. Rejected and expired are terminal.
var transitions = map[models.Status][]models.Status{
	models.StatusPending: {models.StatusActive, models.StatusRejected},
	models.StatusActive:  {models.StatusExpired},
}

// CanTransition reports whether a posting may move from one status to another.
func CanTransition(from, to models.Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CanModerate reports whether an administrator may move a posting from one status to another.
// Expiry is applied by SweepExpirations only.
func CanModerate(from, to models.Status) bool {
	return to != models.StatusExpired && CanTransition(from, to)
}

// ParseStatus converts a raw literal into a Status. Only the exact lowercase literals are accepted.
func ParseStatus(raw string) (models.Status, error) {
	s := models.Status(raw)
	if !s.Valid() {
		return "", apperrors.InvalidTransitionf("unrecognised status %q", raw)
	}
	return s, nil
}

// CheckModeration returns an invalid-transition error when an administrator may not move a
// posting from -> to.
func CheckModeration(from, to models.Status) error {
	if CanModerate(from, to) {
		return nil
	}
	if from == models.StatusActive && to == models.StatusExpired {
		return apperrors.InvalidTransitionf("postings expire through the expiration sweep only")
	}
	return apperrors.InvalidTransitionf("cannot move posting from %s to %s", from, to)
}
