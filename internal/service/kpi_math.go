package service

import (
	"math"
	"sort"
	"time"

	"github.com/noah-isme/drumschool-api/internal/dto"
	"github.com/noah-isme/drumschool-api/internal/models"
	"github.com/noah-isme/drumschool-api/internal/repository"
)

// monthLabelLayout renders month buckets as "Jan/2025".
const monthLabelLayout = "Jan/2006"

// percentage returns numerator/denominator*100 rounded to two decimals, or 0 for an empty
// denominator.
func percentage(numerator, denominator int64) float64 {
	if denominator <= 0 {
		return 0
	}
	return math.Round(float64(numerator)/float64(denominator)*100*100) / 100
}

// monthlyHistogram buckets times by UTC calendar month in ascending order.
func monthlyHistogram(times []time.Time) dto.ChartData {
	counts := make(map[time.Time]int64)
	for _, t := range times {
		utc := t.UTC()
		counts[time.Date(utc.Year(), utc.Month(), 1, 0, 0, 0, 0, time.UTC)]++
	}

	months := make([]time.Time, 0, len(counts))
	for month := range counts {
		months = append(months, month)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })

	chart := dto.ChartData{Labels: make([]string, 0, len(months)), Data: make([]int64, 0, len(months))}
	for _, month := range months {
		chart.Labels = append(chart.Labels, month.Format(monthLabelLayout))
		chart.Data = append(chart.Data, counts[month])
	}
	return chart
}

func categoryChart(rows []repository.LabelCount) dto.ChartData {
	chart := dto.ChartData{Labels: make([]string, 0, len(rows)), Data: make([]int64, 0, len(rows))}
	for _, row := range rows {
		chart.Labels = append(chart.Labels, row.Label)
		chart.Data = append(chart.Data, row.Count)
	}
	return chart
}

func dashboardKPIs(counts map[models.SessionStatus]int64) dto.DashboardKPIs {
	var total int64
	for _, count := range counts {
		total += count
	}
	completed := counts[models.SessionCompleted]
	absent := counts[models.SessionStudentAbsent]

	return dto.DashboardKPIs{
		TotalSessions:         total,
		CompletedSessions:     completed,
		CancelledSessions:     counts[models.SessionCancelled],
		StudentAbsentSessions: absent,
		SuccessRate:           percentage(completed, completed+absent),
	}
}

// teacherPerformance keeps accounts with at least one assigned session, ordered by delivered
// sessions descending and then by username.
func teacherPerformance(rows []repository.TeacherLoadRow) []dto.TeacherPerformance {
	result := make([]dto.TeacherPerformance, 0, len(rows))
	for _, row := range rows {
		if row.Assigned == 0 {
			continue
		}
		result = append(result, dto.TeacherPerformance{
			TeacherID:    row.TeacherID,
			Username:     row.Username,
			Delivered:    row.Delivered,
			Assigned:     row.Assigned,
			DeliveryRate: percentage(row.Delivered, row.Assigned),
		})
	}

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Delivered != result[j].Delivered {
			return result[i].Delivered > result[j].Delivered
		}
		return result[i].Username < result[j].Username
	})
	return result
}

func isDelivered(status models.SessionStatus) bool {
	return status == models.SessionCompleted || status == models.SessionStudentAbsent
}

// studentKPIs counts a student's sessions against their own attendance marks.
func studentKPIs(rows []repository.StudentSessionRow) (dto.StudentKPIs, float64) {
	kpis := dto.StudentKPIs{TotalSessions: int64(len(rows))}
	for _, row := range rows {
		switch row.Status {
		case models.SessionCancelled:
			kpis.CancelledSessions++
		case models.SessionScheduled:
			kpis.ScheduledSessions++
		}

		if !isDelivered(row.Status) || row.AttendanceStatus == nil {
			continue
		}
		switch *row.AttendanceStatus {
		case models.AttendancePresent:
			kpis.DeliveredSessions++
		case models.AttendanceAbsent:
			kpis.MissedSessions++
		}
	}
	return kpis, percentage(kpis.DeliveredSessions, kpis.DeliveredSessions+kpis.MissedSessions)
}

// teacherKPIs credits ordinary sessions through the validated report and complementary
// sessions through the teacher's own presence mark.
func teacherKPIs(teacherID uint, rows []repository.TeacherSessionRow) dto.TeacherKPIs {
	var kpis dto.TeacherKPIs
	for _, row := range rows {
		validatedBySelf := row.ValidatingTeacherID != nil && *row.ValidatingTeacherID == teacherID
		validatedByOther := row.ValidatingTeacherID != nil && *row.ValidatingTeacherID != teacherID
		complementary := row.CategoryKind.IsComplementary()

		switch {
		case complementary && row.Status == models.SessionCompleted && row.Present:
			kpis.Delivered++
		case !complementary && isDelivered(row.Status) && validatedBySelf:
			kpis.Delivered++
		}

		if row.Attached {
			switch row.Status {
			case models.SessionScheduled:
				kpis.Assigned++
			case models.SessionCancelled:
				kpis.Cancelled++
			}
		}

		if row.Status != models.SessionCompleted {
			continue
		}
		if validatedBySelf && !row.Attached {
			kpis.SubstitutionsMade++
		}
		if row.Attached && validatedByOther {
			kpis.SubstitutionsSuffered++
		}
	}
	return kpis
}
