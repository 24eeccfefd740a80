// Package model holds the records the application manages.
package model

import "github.com/campusbook/campusbook/internal/auth"

// Student is an enrolled student record. Role is stored on the record so a
// teacher can promote a student; a student can never set it on themselves.
type Student struct {
	ID        int64
	Name      string
	Roll      string
	Email     string
	Role      auth.Role
	CourseIDs []int64
}

// Teacher is a faculty record, optionally attached to a department.
type Teacher struct {
	ID           int64
	Name         string
	Email        string
	DepartmentID int64 // zero when unassigned
	StudentIDs   []int64
}

// Course is a taught course, optionally attached to a department.
type Course struct {
	ID           int64
	Title        string
	Code         string
	DepartmentID int64
	StudentIDs   []int64
}

// Department groups teachers and courses.
type Department struct {
	ID   int64
	Name string
}
