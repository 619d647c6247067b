package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/codecell/codecell/internal/runner"
	v1 "github.com/codecell/codecell/pkg/api/v1"
)

// submitExecution accepts a code submission and starts it asynchronously.
// A 202 means "attempted": compile rejections, runtime failures and
// cancellations all arrive on the session's event stream, not here.
func (a *API) submitExecution(c *gin.Context) {
	var req v1.ExecuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	lang, err := runner.ParseLanguage(req.Language)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err = a.supervisor.Execute(c.Request.Context(), runner.Request{
		SessionID: req.SessionID,
		Language:  lang,
		Code:      req.Code,
	})
	switch {
	case errors.Is(err, runner.ErrSessionBusy):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, runner.ErrUnsupportedLanguage),
		errors.Is(err, runner.ErrInvalidSessionID):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case err != nil:
		a.log.WithError(err).Error("execution setup failed",
			zap.String("session_id", req.SessionID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusAccepted, gin.H{
			"sessionId": req.SessionID,
			"status":    "accepted",
		})
	}
}

func (a *API) sessionStatus(c *gin.Context) {
	sessionID := c.Param("id")
	c.JSON(http.StatusOK, v1.StateChange{
		SessionID: sessionID,
		IsRunning: a.supervisor.IsRunning(sessionID),
	})
}

func (a *API) stopSession(c *gin.Context) {
	sessionID := c.Param("id")
	c.JSON(http.StatusOK, v1.StopResponse{
		SessionID: sessionID,
		Stopped:   a.supervisor.Stop(sessionID),
	})
}

// teardownSession is the best-effort kill used when a session's UI surface
// goes away. It always succeeds.
func (a *API) teardownSession(c *gin.Context) {
	a.supervisor.Teardown(c.Param("id"))
	c.Status(http.StatusNoContent)
}

func (a *API) listRuntimes(c *gin.Context) {
	results := a.detector.CheckAll()
	out := make([]v1.RuntimeStatus, 0, len(results))
	for _, r := range results {
		out = append(out, v1.RuntimeStatus{
			Name:        r.Info.Name,
			Command:     r.Info.Command,
			Available:   r.Available,
			InstallHint: r.InstallHint,
		})
	}
	c.JSON(http.StatusOK, out)
}
