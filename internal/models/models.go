package models

// All returns every persisted model in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Category{},
		&Student{},
		&ClassSession{},
		&StudentAttendance{},
		&TeacherAttendance{},
		&LessonReport{},
		&RudimentItem{},
		&RhythmItem{},
		&FillItem{},
		&ActivityLog{},
	}
}
