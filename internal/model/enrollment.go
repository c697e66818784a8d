package model

// Enrollment links a student to a class period. A student may hold several
// active enrollments across periods taught by different teachers; assignment
// resolution inspects exactly this set.
type Enrollment struct {
	ID            int  `json:"id"`
	StudentID     int  `json:"student_id"`
	ClassPeriodID int  `json:"class_period_id"`
	IsActive      bool `json:"is_active"`
}
