// Package models holds the platform records observed by the sync bridge and
// the NodeBB link rows owned by this service.
package models

import "time"

// Account is a platform user account. The bridge reads it from account
// lifecycle events; it is owned by the platform's own storage.
type Account struct {
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	DateJoined time.Time `json:"date_joined"`
}

// Profile is a platform user profile (display name and demographic fields).
type Profile struct {
	Username    string `json:"username"`
	Name        string `json:"name"`
	City        string `json:"city"`
	Country     string `json:"country"`
	YearOfBirth int    `json:"year_of_birth"`
}

// Course is the platform course metadata relevant to category creation.
// ID is the full course key string ("org/course/run").
type Course struct {
	ID          string `json:"id"`
	Org         string `json:"org"`
	Course      string `json:"course"`
	Run         string `json:"run"`
	DisplayName string `json:"display_name"`
}

// Enrollment records a user's membership in a course.
type Enrollment struct {
	Username string `json:"username"`
	CourseID string `json:"course_id"`
	Active   bool   `json:"active"`
}

// UserLink maps a platform username to the NodeBB uid created for it.
type UserLink struct {
	Username  string    `json:"username"`
	UID       int64     `json:"uid"`
	CreatedAt time.Time `json:"created_at"`
}

// CategoryLink maps a course to the NodeBB category and member group created
// for it. Its delete_pending lifecycle event drives remote category removal.
type CategoryLink struct {
	CourseID   string    `json:"course_id"`
	CategoryID int64     `json:"category_id"`
	GroupSlug  string    `json:"group_slug"`
	CreatedAt  time.Time `json:"created_at"`
}
