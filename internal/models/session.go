package models

import "time"

// SessionStatus is the lifecycle state of a class session.
type SessionStatus string

const (
	SessionScheduled     SessionStatus = "Scheduled"
	SessionCompleted     SessionStatus = "Completed"
	SessionCancelled     SessionStatus = "Cancelled"
	SessionStudentAbsent SessionStatus = "StudentAbsent"
)

// Valid reports whether the status is one of the four lifecycle states.
func (s SessionStatus) Valid() bool {
	switch s {
	case SessionScheduled, SessionCompleted, SessionCancelled, SessionStudentAbsent:
		return true
	}
	return false
}

// AttendanceStatus is the outcome of an attendance mark.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "present"
	AttendanceAbsent  AttendanceStatus = "absent"
)

// Valid reports whether the attendance status is present or absent.
func (s AttendanceStatus) Valid() bool {
	return s == AttendancePresent || s == AttendanceAbsent
}

// ClassSession is a single scheduled lesson.
type ClassSession struct {
	ID          uint          `gorm:"primaryKey" json:"id"`
	ScheduledAt time.Time     `gorm:"not null;index" json:"scheduled_at"`
	Status      SessionStatus `gorm:"size:20;not null;default:Scheduled;index" json:"status"`
	CategoryID  uint          `gorm:"not null;index" json:"category_id"`
	Category    Category      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"category"`
	Students    []Student     `gorm:"many2many:session_students;constraint:OnDelete:CASCADE" json:"students"`
	Teachers    []User        `gorm:"many2many:session_teachers;constraint:OnDelete:CASCADE" json:"teachers"`
	Report      *LessonReport `gorm:"constraint:OnDelete:CASCADE" json:"report,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// HasStudent reports whether the student participates in the session.
func (s ClassSession) HasStudent(studentID uint) bool {
	for _, student := range s.Students {
		if student.ID == studentID {
			return true
		}
	}
	return false
}

// HasTeacher reports whether the account is attached to the session.
func (s ClassSession) HasTeacher(userID uint) bool {
	for _, teacher := range s.Teachers {
		if teacher.ID == userID {
			return true
		}
	}
	return false
}

// StudentAttendance records whether a participant attended a session.
type StudentAttendance struct {
	ID             uint             `gorm:"primaryKey" json:"id"`
	ClassSessionID uint             `gorm:"not null;uniqueIndex:idx_student_attendance_session_student" json:"session_id"`
	StudentID      uint             `gorm:"not null;uniqueIndex:idx_student_attendance_session_student;index" json:"student_id"`
	Status         AttendanceStatus `gorm:"size:10;not null;default:present" json:"status"`
	ClassSession   ClassSession     `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Student        Student          `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// TeacherAttendance records whether an attached teacher attended a session.
type TeacherAttendance struct {
	ID             uint             `gorm:"primaryKey" json:"id"`
	ClassSessionID uint             `gorm:"not null;uniqueIndex:idx_teacher_attendance_session_teacher" json:"session_id"`
	TeacherID      uint             `gorm:"not null;uniqueIndex:idx_teacher_attendance_session_teacher;index" json:"teacher_id"`
	Status         AttendanceStatus `gorm:"size:10;not null;default:present" json:"status"`
	ClassSession   ClassSession     `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Teacher        User             `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}
