package v1

// ProjectFile is a single named source file within a project.
type ProjectFile struct {
	Name     string `json:"name"`
	Content  string `json:"content"`
	Language string `json:"language"`
}

// Project is a saved collection of source files plus metadata.
type Project struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Template  string        `json:"template"`
	Files     []ProjectFile `json:"files"`
	CreatedAt string        `json:"createdAt"`
	UpdatedAt string        `json:"updatedAt"`
}

// RecentProject is a lightweight pointer to a previously opened project.
type RecentProject struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Template  string `json:"template"`
	Path      string `json:"path"`
	UpdatedAt string `json:"updatedAt"`
}

// ProjectPathRequest names a filesystem location for project export/import.
type ProjectPathRequest struct {
	Path string `json:"path" binding:"required"`
}

// CustomTemplate is a user-defined starting point for new projects.
type CustomTemplate struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Base      string        `json:"base"`
	Files     []ProjectFile `json:"files"`
	CreatedAt string        `json:"createdAt"`
}
