package domain

import "time"

// User is any person in a tenant: clients who open tickets and employees
// who handle them. Capability differences come from the attached role.
type User struct {
	ID        string
	TenantID  string
	Name      string
	Email     string
	RoleID    string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Role carries the capability flags the orchestration engine cares about.
type Role struct {
	ID                string
	TenantID          string
	Name              string
	CanReceiveTickets bool
	CanReviewReopens  bool
	CreatedAt         time.Time
}

// EmployeeWorkload is the derived open-ticket count for one employee.
// Computed on demand, never persisted.
type EmployeeWorkload struct {
	EmployeeID string
	OpenCount  int
}
