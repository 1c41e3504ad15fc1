package model

import "time"

// Course is catalog metadata loaded from the content directory
// (one subdirectory per course holding a course.yaml).
type Course struct {
	ID          string `yaml:"-"` // directory name
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	// Price in minor units of Currency (e.g. 1999 = 19.99 USD).
	Price    int64  `yaml:"price"`
	Currency string `yaml:"currency"`
	Cover    string `yaml:"cover"`
	Hidden   bool   `yaml:"hidden"`
}

// Entitlement records that a user owns access to a course.
// At most one row exists per (user, course); the database enforces this.
type Entitlement struct {
	UserID      int64     `json:"user_id"`
	CourseID    string    `json:"course_id"`
	Favorite    bool      `json:"favorite"`
	PurchasedAt time.Time `json:"purchased_at"`
}
