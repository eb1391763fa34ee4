package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"github.com/noah-isme/drumschool-api/internal/dto"
	"github.com/noah-isme/drumschool-api/internal/models"
	"github.com/noah-isme/drumschool-api/internal/repository"
)

const sessionsSheet = "Sessions"

var sessionExportHeader = []interface{}{"ID", "Date/Time", "Category", "Status", "Students", "Teachers", "Validating teacher"}

// ExportService renders spreadsheets for offline reporting.
type ExportService interface {
	ExportSessions(ctx context.Context, req dto.SessionListRequest) ([]byte, error)
}

type exportService struct {
	sessions  repository.SessionRepository
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewExportService constructs the export service. Filters follow the session listing.
func NewExportService(sessions repository.SessionRepository, validator *validator.Validate, logger zerolog.Logger) ExportService {
	return &exportService{
		sessions:  sessions,
		validator: validator,
		logger:    logger.With().Str("component", "export_service").Logger(),
	}
}

func (s *exportService) ExportSessions(ctx context.Context, req dto.SessionListRequest) ([]byte, error) {
	req.Page, req.PageSize = 0, 0
	filter, err := buildSessionFilter(s.validator, req)
	if err != nil {
		return nil, err
	}

	sessions, _, err := s.sessions.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	book := excelize.NewFile()
	defer func() {
		if err := book.Close(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to close workbook")
		}
	}()

	if err := book.SetSheetName(book.GetSheetName(0), sessionsSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if err := book.SetSheetRow(sessionsSheet, "A1", &sessionExportHeader); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	for i, session := range sessions {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := sessionExportRow(session)
		if err := book.SetSheetRow(sessionsSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := book.SetColWidth(sessionsSheet, "A", "A", 8); err != nil {
		return nil, err
	}
	if err := book.SetColWidth(sessionsSheet, "B", "G", 24); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := book.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}

	s.logger.Info().Int("rows", len(sessions)).Msg("sessions exported")
	return buf.Bytes(), nil
}

func sessionExportRow(session models.ClassSession) []interface{} {
	students := make([]string, 0, len(session.Students))
	for _, student := range session.Students {
		students = append(students, student.FullName)
	}
	teachers := make([]string, 0, len(session.Teachers))
	for _, teacher := range session.Teachers {
		teachers = append(teachers, teacher.Username)
	}

	validating := ""
	if session.Report != nil && session.Report.ValidatingTeacher != nil {
		validating = session.Report.ValidatingTeacher.Username
	}

	return []interface{}{
		session.ID,
		session.ScheduledAt.UTC().Format("2006-01-02 15:04"),
		session.Category.Name,
		string(session.Status),
		strings.Join(students, ", "),
		strings.Join(teachers, ", "),
		validating,
	}
}
