package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"github.com/yuin/goldmark"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/drumschool-api/internal/dto"
	"github.com/noah-isme/drumschool-api/internal/models"
	"github.com/noah-isme/drumschool-api/internal/repository"
	"github.com/noah-isme/drumschool-api/pkg/ai"
)

var (
	// ErrNoSummaryData indicates the student has no delivered, reported session they attended.
	ErrNoSummaryData = errors.New("no lesson reports available for this student")
	// ErrSummaryProviderFailed indicates the completion provider failed.
	ErrSummaryProviderFailed = errors.New("summary provider failed")
	// ErrSummaryUnavailable indicates no completion provider is configured.
	ErrSummaryUnavailable = errors.New("summary generation is not configured")
)

const summaryInstructions = `**Task:** You are an experienced drum instructor and teaching assistant. Analyse the lesson reports of one student and write a detailed, constructive and encouraging performance review.

**Instructions:**
1. Read all the data provided about the student and their lesson reports.
2. Identify progress patterns, recurring difficulties and highlights.
3. Do not invent information. Rely strictly on the data provided.
4. Use clear, positive, pedagogical language.
5. Structure the answer EXACTLY with the following sections, in Markdown.

### Teaching Performance Review

**1. Overall Summary:**
An opening paragraph summarising the student's path and engagement according to the reports.

**2. Strengths and Highlights:**
Bullet points with the areas where the student shows the most skill or progress.

**3. Areas for Improvement:**
Bullet points with the areas that need more attention, phrased constructively.

**4. Technical Progression:**
Comment on the technical evolution in rudiments, rhythms and fills. Briefly analyse the repertoire and suggest songs with similar grooves.

**5. Recommendations for Upcoming Lessons:**
Suggest 2 to 3 practical focus points for the next lessons.

**Raw data for analysis:**
`

// SummaryService generates AI performance summaries for students.
type SummaryService interface {
	Generate(ctx context.Context, studentID uint) (dto.StudentSummaryResponse, error)
}

type summaryService struct {
	reports   repository.ReportRepository
	students  repository.StudentRepository
	completer ai.Completer
	policy    *bluemonday.Policy
	markdown  goldmark.Markdown
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// NewSummaryService constructs the summary generator. A nil completer makes Generate
// return ErrSummaryUnavailable.
func NewSummaryService(reports repository.ReportRepository, students repository.StudentRepository, completer ai.Completer, logger zerolog.Logger) SummaryService {
	return &summaryService{
		reports:   reports,
		students:  students,
		completer: completer,
		policy:    bluemonday.UGCPolicy(),
		markdown:  goldmark.New(),
		logger:    logger.With().Str("component", "summary_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/drumschool-api/internal/service/summary"),
	}
}

func (s *summaryService) Generate(ctx context.Context, studentID uint) (dto.StudentSummaryResponse, error) {
	ctx, span := s.tracer.Start(ctx, "summary.generate", trace.WithAttributes(attribute.Int64("student.id", int64(studentID))))
	defer span.End()

	student, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		return dto.StudentSummaryResponse{}, mapStudentError(err)
	}

	sessions, err := s.reports.ListStudentSummarySessions(ctx, studentID)
	if err != nil {
		return dto.StudentSummaryResponse{}, spanError(span, "list_sessions_failed", err)
	}
	span.SetAttributes(attribute.Int("summary.sessions", len(sessions)))
	if len(sessions) == 0 {
		return dto.StudentSummaryResponse{}, ErrNoSummaryData
	}

	if s.completer == nil {
		return dto.StudentSummaryResponse{}, ErrSummaryUnavailable
	}

	prompt := BuildSummaryPrompt(student, sessions)
	text, err := s.completer.Complete(ctx, prompt)
	if err != nil {
		s.logger.Error().Err(err).Uint("student_id", studentID).Msg("summary completion failed")
		spanError(span, "completion_failed", err)
		return dto.StudentSummaryResponse{}, fmt.Errorf("%w: %v", ErrSummaryProviderFailed, err)
	}

	html, err := s.render(text)
	if err != nil {
		return dto.StudentSummaryResponse{}, spanError(span, "render_failed", err)
	}
	return dto.StudentSummaryResponse{ReportHTML: html}, nil
}

// render converts the markdown answer to sanitised HTML.
func (s *summaryService) render(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := s.markdown.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("render summary markdown: %w", err)
	}
	return s.policy.Sanitize(buf.String()), nil
}

// BuildSummaryPrompt formats the student's reported sessions into the instruction template.
func BuildSummaryPrompt(student models.Student, sessions []models.ClassSession) string {
	builder := strings.Builder{}
	builder.WriteString(summaryInstructions)
	builder.WriteString("Performance review for student: ")
	builder.WriteString(student.FullName)
	builder.WriteString("\n\n")

	for _, session := range sessions {
		builder.WriteString("--- LESSON: ")
		builder.WriteString(session.ScheduledAt.UTC().Format("02/01/2006"))
		if session.Category.Name != "" {
			builder.WriteString(" (" + session.Category.Name + ")")
		}
		builder.WriteString(" ---\n")

		report := session.Report
		if report == nil {
			builder.WriteString("\n")
			continue
		}
		writeField(&builder, "Theory", report.TheoryContent)
		writeField(&builder, "Repertoire", report.Repertoire)
		writeField(&builder, "Notes", report.GeneralNotes)
		for _, item := range report.Rudiments {
			writeItem(&builder, "Rudiment", item.ExerciseFields, "")
		}
		for _, item := range report.Rhythms {
			writeItem(&builder, "Rhythm", item.ExerciseFields, item.MethodReference)
		}
		for _, item := range report.Fills {
			writeItem(&builder, "Fill", item.ExerciseFields, "")
		}
		builder.WriteString("\n")
	}

	return builder.String()
}

func writeField(builder *strings.Builder, label, value string) {
	if value = strings.TrimSpace(value); value == "" {
		return
	}
	fmt.Fprintf(builder, "%s: %s\n", label, value)
}

func writeItem(builder *strings.Builder, kind string, fields models.ExerciseFields, reference string) {
	notes := ""
	if fields.Notes != nil {
		notes = strings.TrimSpace(*fields.Notes)
	}
	fmt.Fprintf(builder, "- %s: %s | Tempo: %s | Notes: %s", kind, fields.Description, fields.Tempo, notes)
	if reference != "" {
		fmt.Fprintf(builder, " | Method: %s", reference)
	}
	if fields.DurationMinutes != nil {
		fmt.Fprintf(builder, " | Minutes: %d", *fields.DurationMinutes)
	}
	builder.WriteString("\n")
}
