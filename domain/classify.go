package domain

import "time"

// Classify decides the outcome of a reminder completed at completedAt.
// Only a completion strictly before the deadline is a touchdown; completing
// exactly at the deadline instant counts as late.
func Classify(deadline, completedAt time.Time) CompletionStatus {
	if completedAt.Before(deadline) {
		return CompletionTouchdown
	}
	return CompletionFieldGoal
}
