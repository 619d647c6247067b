package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/codecell/codecell/internal/project"
	v1 "github.com/codecell/codecell/pkg/api/v1"
)

func toV1Project(p project.Project) v1.Project {
	files := make([]v1.ProjectFile, 0, len(p.Files))
	for _, f := range p.Files {
		files = append(files, v1.ProjectFile{Name: f.Name, Content: f.Content, Language: f.Language})
	}
	return v1.Project{
		ID:        p.ID,
		Name:      p.Name,
		Template:  p.Template,
		Files:     files,
		CreatedAt: p.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: p.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func fromV1Files(files []v1.ProjectFile) []project.File {
	out := make([]project.File, 0, len(files))
	for _, f := range files {
		out = append(out, project.File{Name: f.Name, Content: f.Content, Language: f.Language})
	}
	return out
}

// saveProject persists a scratch project and records it as recent. A missing
// id means a new project.
func (a *API) saveProject(c *gin.Context) {
	var req v1.Project
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.ID == "" {
		req.ID = uuid.New().String()
	}

	now := time.Now().UTC()
	p := project.Project{
		ID:        req.ID,
		Name:      req.Name,
		Template:  req.Template,
		Files:     fromV1Files(req.Files),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if created, err := time.Parse(time.RFC3339, req.CreatedAt); err == nil {
		p.CreatedAt = created
	}

	dir, err := a.projects.SaveTemp(c.Request.Context(), p)
	if errors.Is(err, project.ErrInvalidID) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	err = a.projects.AddRecent(c.Request.Context(), project.RecentProject{
		ID:        p.ID,
		Name:      p.Name,
		Template:  p.Template,
		Path:      dir,
		UpdatedAt: p.UpdatedAt,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, toV1Project(p))
}

func (a *API) getProject(c *gin.Context) {
	p, err := a.projects.LoadTemp(c.Param("id"))
	if errors.Is(err, project.ErrInvalidID) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if errors.Is(err, project.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, toV1Project(p))
}

func (a *API) deleteProject(c *gin.Context) {
	err := a.projects.DeleteTemp(c.Request.Context(), c.Param("id"))
	if errors.Is(err, project.ErrInvalidID) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// exportProject writes a saved project to a caller-chosen path as one JSON
// document.
func (a *API) exportProject(c *gin.Context) {
	var req v1.ProjectPathRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, err := a.projects.LoadTemp(c.Param("id"))
	if errors.Is(err, project.ErrInvalidID) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if errors.Is(err, project.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if err := a.projects.SaveToPath(p, req.Path); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"path": req.Path})
}

// importProject reads a project JSON document from a caller-chosen path and
// returns it. The client decides whether to save it afterwards.
func (a *API) importProject(c *gin.Context) {
	var req v1.ProjectPathRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, err := a.projects.LoadFromPath(req.Path)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, toV1Project(p))
}

func (a *API) removeRecentProject(c *gin.Context) {
	if err := a.projects.RemoveRecent(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *API) listRecentProjects(c *gin.Context) {
	recents, err := a.projects.Recents(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	out := make([]v1.RecentProject, 0, len(recents))
	for _, rp := range recents {
		out = append(out, v1.RecentProject{
			ID:        rp.ID,
			Name:      rp.Name,
			Template:  rp.Template,
			Path:      rp.Path,
			UpdatedAt: rp.UpdatedAt.UTC().Format(time.RFC3339),
		})
	}
	c.JSON(http.StatusOK, out)
}

func (a *API) listTemplates(c *gin.Context) {
	templates, err := a.projects.Templates(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	out := make([]v1.CustomTemplate, 0, len(templates))
	for _, tpl := range templates {
		files := make([]v1.ProjectFile, 0, len(tpl.Files))
		for _, f := range tpl.Files {
			files = append(files, v1.ProjectFile{Name: f.Name, Content: f.Content, Language: f.Language})
		}
		out = append(out, v1.CustomTemplate{
			ID:        tpl.ID,
			Name:      tpl.Name,
			Base:      tpl.Base,
			Files:     files,
			CreatedAt: tpl.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	c.JSON(http.StatusOK, out)
}

func (a *API) getTemplate(c *gin.Context) {
	tpl, err := a.projects.GetTemplate(c.Request.Context(), c.Param("id"))
	if errors.Is(err, project.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	files := make([]v1.ProjectFile, 0, len(tpl.Files))
	for _, f := range tpl.Files {
		files = append(files, v1.ProjectFile{Name: f.Name, Content: f.Content, Language: f.Language})
	}
	c.JSON(http.StatusOK, v1.CustomTemplate{
		ID:        tpl.ID,
		Name:      tpl.Name,
		Base:      tpl.Base,
		Files:     files,
		CreatedAt: tpl.CreatedAt.UTC().Format(time.RFC3339),
	})
}

func (a *API) saveTemplate(c *gin.Context) {
	var req v1.CustomTemplate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.ID == "" {
		req.ID = uuid.New().String()
	}

	tpl := project.CustomTemplate{
		ID:        req.ID,
		Name:      req.Name,
		Base:      req.Base,
		Files:     fromV1Files(req.Files),
		CreatedAt: time.Now().UTC(),
	}
	if created, err := time.Parse(time.RFC3339, req.CreatedAt); err == nil {
		tpl.CreatedAt = created
	}

	if err := a.projects.SaveTemplate(c.Request.Context(), tpl); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": tpl.ID})
}

func (a *API) deleteTemplate(c *gin.Context) {
	if err := a.projects.DeleteTemplate(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}
