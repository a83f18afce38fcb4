package models

import "time"

// Enrollment ties a user to a course. Progress is derived from lesson
// completions and Completed never reverts once set.
type Enrollment struct {
	ID                int64      `db:"id" json:"id"`
	UserID            int64      `db:"user_id" json:"userId"`
	CourseID          int64      `db:"course_id" json:"courseId"`
	Progress          int        `db:"progress" json:"progress"`
	Completed         bool       `db:"completed" json:"completed"`
	CertificateIssued bool       `db:"certificate_issued" json:"certificateIssued"`
	EnrolledAt        time.Time  `db:"enrolled_at" json:"enrolledAt"`
	CompletedAt       *time.Time `db:"completed_at" json:"completedAt"`
}

// EnrollmentWithCourse embeds the enrolled course.
type EnrollmentWithCourse struct {
	Enrollment
	Course *Course `json:"course"`
}

// Progress records that a user completed a lesson.
type Progress struct {
	ID          int64      `db:"id" json:"id"`
	UserID      int64      `db:"user_id" json:"userId"`
	LessonID    int64      `db:"lesson_id" json:"lessonId"`
	Completed   bool       `db:"completed" json:"completed"`
	CompletedAt *time.Time `db:"completed_at" json:"completedAt"`
}

// LessonStatus answers whether the caller finished a lesson.
type LessonStatus struct {
	Completed bool `json:"completed"`
}
