package student

import (
	"scangate/internal/attendance/models"
	id "scangate/pkg/domain"
)

// SeedDemoStudents loads a handful of students into the memory directory so
// the server runs without a database in development.
func SeedDemoStudents(d *InMemoryDirectory) []models.Student {
	students := []models.Student{
		{ID: id.NewStudentID(), SchoolID: "2023-00117", DisplayName: "Amara Reyes"},
		{ID: id.NewStudentID(), SchoolID: "2023-00214", DisplayName: "Joshua Lim"},
		{ID: id.NewStudentID(), SchoolID: "2024-00031", DisplayName: "Bea Santos"},
		{ID: id.NewStudentID(), SchoolID: "2024-00180", DisplayName: "Miguel Dela Cruz"},
	}
	for _, s := range students {
		d.Add(s)
	}
	return students
}
