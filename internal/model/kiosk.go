package model

// Kiosk is a bearer credential for shared hallway devices. Binding is
// mutually exclusive: a kiosk points at one class period, or one teacher,
// or nothing at all.
type Kiosk struct {
	ID            int    `json:"id"`
	Token         string `json:"-"`
	Name          string `json:"name"`
	Room          string `json:"room,omitempty"`
	ClassPeriodID *int   `json:"class_period_id,omitempty"`
	TeacherID     *int   `json:"teacher_id,omitempty"`
	IsActive      bool   `json:"is_active"`
}
