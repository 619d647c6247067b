// Package project persists user projects: scratch workspaces on disk,
// recent-project history and custom templates in SQLite.
package project

import "time"

// File is one named source file inside a project.
type File struct {
	Name     string `json:"name"`
	Content  string `json:"content"`
	Language string `json:"language"`
}

// Project is a collection of source files plus metadata.
type Project struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Template  string    `json:"template"`
	Files     []File    `json:"files"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// RecentProject points at a previously opened project.
type RecentProject struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Template  string    `json:"template" db:"template"`
	Path      string    `json:"path" db:"path"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// CustomTemplate is a user-defined starting point for new projects.
type CustomTemplate struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Base      string    `json:"base"`
	Files     []File    `json:"files"`
	CreatedAt time.Time `json:"createdAt"`
}
