package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/drumschool-api/internal/dto"
	"github.com/noah-isme/drumschool-api/internal/models"
	"github.com/noah-isme/drumschool-api/internal/observability"
	"github.com/noah-isme/drumschool-api/internal/repository"
)

// ErrEmptyAttendanceBatch indicates a marking request without marks.
var ErrEmptyAttendanceBatch = errors.New("attendance batch is empty")

// AttendanceService records attendance batches and derives the session status from them.
type AttendanceService interface {
	RecordStudentAttendance(ctx context.Context, sessionID uint, marks []dto.StudentMark, actor ActivityActor) (dto.AttendanceResult, error)
	RecordTeacherAttendance(ctx context.Context, sessionID uint, marks []dto.TeacherMark, actor ActivityActor) (dto.AttendanceResult, error)
}

type attendanceService struct {
	sessions   repository.SessionRepository
	attendance repository.AttendanceRepository
	validator  *validator.Validate
	activity   ActivityRecorder
	events     SessionEventPublisher
	dashboards DashboardInvalidator
	logger     zerolog.Logger
}

// NewAttendanceService constructs the attendance recorder.
func NewAttendanceService(
	sessions repository.SessionRepository,
	attendance repository.AttendanceRepository,
	validator *validator.Validate,
	activity ActivityRecorder,
	events SessionEventPublisher,
	dashboards DashboardInvalidator,
	logger zerolog.Logger,
) AttendanceService {
	return &attendanceService{
		sessions:   sessions,
		attendance: attendance,
		validator:  validator,
		activity:   activity,
		events:     events,
		dashboards: dashboards,
		logger:     logger.With().Str("component", "attendance_service").Logger(),
	}
}

func studentTransition(_ models.SessionStatus, hasPresent bool) models.SessionStatus {
	return models.StudentMarkingTransition(hasPresent)
}

// RecordStudentAttendance validates the whole batch before writing anything, then applies
// it atomically.
func (s *attendanceService) RecordStudentAttendance(ctx context.Context, sessionID uint, marks []dto.StudentMark, actor ActivityActor) (dto.AttendanceResult, error) {
	if len(marks) == 0 {
		return dto.AttendanceResult{}, newValidationError("marks", ErrEmptyAttendanceBatch.Error())
	}
	for i := range marks {
		if err := s.validator.Struct(marks[i]); err != nil {
			return dto.AttendanceResult{}, err
		}
	}

	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return dto.AttendanceResult{}, mapSessionError(err)
	}

	rows := make([]models.StudentAttendance, 0, len(marks))
	index := make(map[uint]int, len(marks))
	for _, mark := range marks {
		if !session.HasStudent(mark.StudentID) {
			return dto.AttendanceResult{}, newValidationError("student_id", fmt.Sprintf("student %d is not a participant of session %d", mark.StudentID, sessionID))
		}
		row := models.StudentAttendance{StudentID: mark.StudentID, Status: models.AttendanceStatus(mark.Status)}
		// the last mark for a student in a batch wins
		if i, ok := index[mark.StudentID]; ok {
			rows[i] = row
			continue
		}
		index[mark.StudentID] = len(rows)
		rows = append(rows, row)
	}

	change, err := s.attendance.RecordStudentMarks(ctx, sessionID, rows, studentTransition)
	if err != nil {
		return dto.AttendanceResult{}, mapSessionError(err)
	}

	s.afterMarking(ctx, sessionID, "student_attendance", change, len(rows), actor)
	result := dto.AttendanceResult{SessionID: sessionID, Status: string(change.To), Changed: change.Changed(), Marked: len(rows)}

	sheet, err := s.attendance.ListStudentAttendance(ctx, sessionID)
	if err != nil {
		s.logger.Warn().Err(err).Uint("session_id", sessionID).Msg("student attendance sheet unavailable")
		return result, nil
	}
	result.Students = make([]dto.StudentMark, 0, len(sheet))
	for _, row := range sheet {
		result.Students = append(result.Students, dto.StudentMark{StudentID: row.StudentID, Status: string(row.Status)})
	}
	return result, nil
}

// RecordTeacherAttendance mirrors RecordStudentAttendance but never produces an all-absent
// status: without a present teacher the status is kept.
func (s *attendanceService) RecordTeacherAttendance(ctx context.Context, sessionID uint, marks []dto.TeacherMark, actor ActivityActor) (dto.AttendanceResult, error) {
	if len(marks) == 0 {
		return dto.AttendanceResult{}, newValidationError("marks", ErrEmptyAttendanceBatch.Error())
	}
	for i := range marks {
		if err := s.validator.Struct(marks[i]); err != nil {
			return dto.AttendanceResult{}, err
		}
	}

	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return dto.AttendanceResult{}, mapSessionError(err)
	}

	rows := make([]models.TeacherAttendance, 0, len(marks))
	index := make(map[uint]int, len(marks))
	for _, mark := range marks {
		if !session.HasTeacher(mark.TeacherID) {
			return dto.AttendanceResult{}, newValidationError("teacher_id", fmt.Sprintf("teacher %d is not attached to session %d", mark.TeacherID, sessionID))
		}
		row := models.TeacherAttendance{TeacherID: mark.TeacherID, Status: models.AttendanceStatus(mark.Status)}
		if i, ok := index[mark.TeacherID]; ok {
			rows[i] = row
			continue
		}
		index[mark.TeacherID] = len(rows)
		rows = append(rows, row)
	}

	change, err := s.attendance.RecordTeacherMarks(ctx, sessionID, rows, models.TeacherMarkingTransition)
	if err != nil {
		return dto.AttendanceResult{}, mapSessionError(err)
	}

	s.afterMarking(ctx, sessionID, "teacher_attendance", change, len(rows), actor)
	result := dto.AttendanceResult{SessionID: sessionID, Status: string(change.To), Changed: change.Changed(), Marked: len(rows)}

	sheet, err := s.attendance.ListTeacherAttendance(ctx, sessionID)
	if err != nil {
		s.logger.Warn().Err(err).Uint("session_id", sessionID).Msg("teacher attendance sheet unavailable")
		return result, nil
	}
	result.Teachers = make([]dto.TeacherMark, 0, len(sheet))
	for _, row := range sheet {
		result.Teachers = append(result.Teachers, dto.TeacherMark{TeacherID: row.TeacherID, Status: string(row.Status)})
	}
	return result, nil
}

func (s *attendanceService) afterMarking(ctx context.Context, sessionID uint, source string, change repository.StatusChange, marked int, actor ActivityActor) {
	s.logger.Info().
		Uint("session_id", sessionID).
		Str("source", source).
		Str("from", string(change.From)).
		Str("to", string(change.To)).
		Int("marked", marked).
		Msg("attendance recorded")

	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		Actor:      actor,
		Action:     "session." + source + "_marked",
		EntityType: "session",
		EntityID:   &sessionID,
		Metadata: map[string]interface{}{
			"from":   change.From,
			"to":     change.To,
			"marked": marked,
		},
	})

	if !change.Changed() {
		return
	}
	invalidateDashboards(ctx, s.dashboards)
	observability.StatusTransitions().WithLabelValues(source, string(change.To)).Inc()
	if s.events != nil {
		s.events.StatusChanged(ctx, SessionStatusEvent{
			SessionID:  sessionID,
			From:       string(change.From),
			To:         string(change.To),
			Source:     source,
			ActorID:    actor.ID,
			OccurredAt: time.Now().UTC(),
		})
	}
}
