package types

import "time"

// Project is a unit of work owned by one manager and shared with a team.
type Project struct {
	// ID is the unique identifier of the project.
	ID int `json:"id" db:"id"`

	// ProjectName is the display name of the project.
	ProjectName string `json:"project_name" db:"project_name"`

	// ClientName is the client the project is delivered for.
	ClientName string `json:"client_name" db:"client_name"`

	// Description is a free-form summary of the project.
	Description string `json:"description" db:"description"`

	// ManagerID references the owning user. Only the manager may update
	// or delete the project and mutate its team.
	ManagerID int `json:"manager_id" db:"manager_id"`

	// Team lists the IDs of users granted access beyond the manager.
	Team []int `json:"team,omitempty" db:"-"`

	// Tasks is populated on single-project reads.
	Tasks []Task `json:"tasks,omitempty" db:"-"`

	// CreatedAt is the timestamp the project was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// HasMember reports whether the given user is the manager or on the team.
func (p Project) HasMember(userID int) bool {
	if p.ManagerID == userID {
		return true
	}
	for _, id := range p.Team {
		if id == userID {
			return true
		}
	}
	return false
}
