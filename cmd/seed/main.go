package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/corridor/hallpass-backend/internal/config"
	"github.com/corridor/hallpass-backend/internal/database"
	"github.com/corridor/hallpass-backend/internal/logger"
	"github.com/corridor/hallpass-backend/internal/model"
)

// Seeds a small demo school: two teachers, three students, periods,
// enrollments, destinations with capacity caps, and one kiosk per binding
// flavor. Idempotent via ON CONFLICT upserts.
func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	fmt.Println("=== Seeding demo data ===")

	user := func(email, name string, role model.Role) int {
		var id int
		err := pool.QueryRow(ctx,
			`INSERT INTO users (email, full_name, role)
			 VALUES ($1, $2, $3)
			 ON CONFLICT (email) DO UPDATE SET full_name = EXCLUDED.full_name
			 RETURNING id`, email, name, role).Scan(&id)
		if err != nil {
			log.Fatal().Err(err).Str("email", email).Msg("Seed user failed")
		}
		return id
	}

	teacherRivera := user("rivera@school.example", "Ms. Rivera", model.RoleTeacher)
	teacherChen := user("chen@school.example", "Mr. Chen", model.RoleTeacher)
	user("admin@school.example", "Front Office", model.RoleAdmin)

	studentAva := user("ava@school.example", "Ava Stone", model.RoleStudent)
	studentBen := user("ben@school.example", "Ben Okafor", model.RoleStudent)
	studentCara := user("cara@school.example", "Cara Lindh", model.RoleStudent)

	period := func(name string, teacherID int, start, end string) int {
		var id int
		err := pool.QueryRow(ctx,
			`INSERT INTO class_periods (name, teacher_id, start_time, end_time, days_mask, room)
			 VALUES ($1, $2, $3, $4, '1111100', NULL)
			 ON CONFLICT (name, teacher_id) DO UPDATE SET start_time = EXCLUDED.start_time
			 RETURNING id`, name, teacherID, start, end).Scan(&id)
		if err != nil {
			log.Fatal().Err(err).Str("name", name).Msg("Seed period failed")
		}
		return id
	}

	periodMath := period("Period 2 Math", teacherRivera, "09:00", "09:50")
	periodBio := period("Period 3 Biology", teacherChen, "10:00", "10:50")

	enroll := func(studentID, periodID int) {
		_, err := pool.Exec(ctx,
			`INSERT INTO student_enrollments (student_id, class_period_id)
			 VALUES ($1, $2)
			 ON CONFLICT (student_id, class_period_id) DO NOTHING`, studentID, periodID)
		if err != nil {
			log.Fatal().Err(err).Msg("Seed enrollment failed")
		}
	}

	// Ava resolves unambiguously; Ben spans two teachers and must select.
	enroll(studentAva, periodMath)
	enroll(studentBen, periodMath)
	enroll(studentBen, periodBio)
	enroll(studentCara, periodBio)

	destinations := []model.Destination{
		{Name: "Restroom", DefaultMinutes: 5, MaxConcurrent: 2},
		{Name: "Nurse", DefaultMinutes: 15, MaxConcurrent: model.UnlimitedConcurrent},
		{Name: "Library", DefaultMinutes: 20, MaxConcurrent: 4},
		{Name: "Main Office", DefaultMinutes: 10, MaxConcurrent: 1},
	}
	for _, d := range destinations {
		if _, err := pool.Exec(ctx,
			`INSERT INTO destinations (name, default_minutes, max_concurrent)
			 VALUES ($1, $2, $3)
			 ON CONFLICT (name) DO UPDATE SET default_minutes = EXCLUDED.default_minutes,
			                                  max_concurrent = EXCLUDED.max_concurrent`,
			d.Name, d.DefaultMinutes, d.MaxConcurrent); err != nil {
			log.Fatal().Err(err).Str("name", d.Name).Msg("Seed destination failed")
		}
	}

	kiosk := func(name string, periodID, teacherID *int) string {
		token := newToken()
		_, err := pool.Exec(ctx,
			`INSERT INTO kiosks (token, name, class_period_id, teacher_id)
			 VALUES ($1, $2, $3, $4)`, token, name, periodID, teacherID)
		if err != nil {
			log.Fatal().Err(err).Str("name", name).Msg("Seed kiosk failed")
		}
		return token
	}

	hallToken := kiosk("Hall Display", nil, nil)
	mathToken := kiosk("Math Room Kiosk", &periodMath, nil)
	chenToken := kiosk("Mr. Chen's Desk", nil, &teacherChen)

	fmt.Println("Seed complete.")
	fmt.Printf("  unbound kiosk token:  %s\n", hallToken)
	fmt.Printf("  period kiosk token:   %s\n", mathToken)
	fmt.Printf("  teacher kiosk token:  %s\n", chenToken)
	_ = studentCara
}

// newToken mints a 32-char kiosk bearer token.
func newToken() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}
