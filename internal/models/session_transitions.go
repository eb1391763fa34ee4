package models

// StudentMarkingTransition returns the status a session takes after student attendance was recorded.
// Any present student completes the session; otherwise the student is considered absent.
func StudentMarkingTransition(hasPresent bool) SessionStatus {
	if hasPresent {
		return SessionCompleted
	}
	return SessionStudentAbsent
}

// TeacherMarkingTransition returns the status a session takes after teacher attendance was recorded.
// Unlike student marking there is no all-absent terminal state: without a present teacher the
// current status is kept.
func TeacherMarkingTransition(current SessionStatus, hasPresent bool) SessionStatus {
	if hasPresent {
		return SessionCompleted
	}
	return current
}
