package dto

import "time"

// DashboardKPIs are the headline counters of the admin dashboard.
type DashboardKPIs struct {
	TotalSessions         int64   `json:"total_sessions"`
	CompletedSessions     int64   `json:"completed_sessions"`
	CancelledSessions     int64   `json:"cancelled_sessions"`
	StudentAbsentSessions int64   `json:"student_absent_sessions"`
	SuccessRate           float64 `json:"success_rate"`
}

// TeacherPerformance compares assigned and delivered sessions for one account.
type TeacherPerformance struct {
	TeacherID    uint    `json:"teacher_id"`
	Username     string  `json:"username"`
	Delivered    int64   `json:"delivered"`
	Assigned     int64   `json:"assigned"`
	DeliveryRate float64 `json:"delivery_rate"`
}

// AdminDashboardResponse is the full admin dashboard payload.
type AdminDashboardResponse struct {
	KPIs               DashboardKPIs        `json:"kpis"`
	SessionsByCategory ChartData            `json:"sessions_by_category_chart"`
	CompletedPerMonth  ChartData            `json:"completed_sessions_per_month_chart"`
	TeacherPerformance []TeacherPerformance `json:"teacher_performance"`
	GeneratedAt        time.Time            `json:"generated_at"`
	CacheHit           bool                 `json:"cache_hit"`
}

// TeacherKPIs summarises a teacher's delivery and substitution record.
type TeacherKPIs struct {
	Delivered             int64 `json:"delivered"`
	Assigned              int64 `json:"assigned"`
	Cancelled             int64 `json:"cancelled"`
	SubstitutionsMade     int64 `json:"substitutions_made"`
	SubstitutionsSuffered int64 `json:"substitutions_suffered"`
}

// TeacherDetailResponse is the teacher detail view with KPIs.
type TeacherDetailResponse struct {
	UserResponse
	KPIs TeacherKPIs `json:"kpis"`
}
