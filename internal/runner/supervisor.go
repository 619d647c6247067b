package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/codecell/codecell/internal/common/logger"
	"github.com/codecell/codecell/internal/events"
	"github.com/codecell/codecell/internal/events/bus"
)

const eventSource = "runner"

// Request is one execution submission.
type Request struct {
	SessionID string
	Language  Language
	Code      string
}

// Result is the terminal outcome of one execution.
type Result struct {
	Stdout     string
	Stderr     string
	ExitCode   int
	DurationMs int64
}

// Supervisor drives executions end to end: admission, pipeline setup,
// process spawn and tracking, output streaming, completion sequencing and
// cancellation. One Supervisor serves all sessions; the only shared state is
// the registry and the admission set, each guarded by its own lock held only
// for map mutation.
type Supervisor struct {
	registry   *Registry
	bus        bus.EventBus
	log        *logger.Logger
	toolchains Toolchains
	scratchDir string
	admission  *admissionSet
}

// NewSupervisor creates a supervisor publishing on eventBus. An empty
// scratchDir selects the platform temp root.
func NewSupervisor(eventBus bus.EventBus, log *logger.Logger, chains Toolchains, scratchDir string) *Supervisor {
	if scratchDir == "" {
		scratchDir = os.TempDir()
	}
	if chains == nil {
		chains = DefaultToolchains()
	}
	return &Supervisor{
		registry:   NewRegistry(),
		bus:        eventBus,
		log:        log.WithFields(zap.String("component", "supervisor")),
		toolchains: chains,
		scratchDir: scratchDir,
		admission:  newAdmissionSet(),
	}
}

// Execute accepts req and starts its execution. It returns once the process
// is running (or the compile step was rejected, which still counts as
// accepted: the diagnostics arrive as the terminal result). Only setup
// failures are returned as errors: a busy session, unwritable scratch files,
// an unlaunchable toolchain.
//
// Accepted requests emit, per session: zero or more output events in
// per-stream order, exactly one completed event, and state-changed events on
// every tracked-process flip.
func (s *Supervisor) Execute(ctx context.Context, req Request) error {
	log := s.log.WithSessionID(req.SessionID).WithLanguage(string(req.Language))

	if !validSessionID(req.SessionID) {
		return fmt.Errorf("%w: %q", ErrInvalidSessionID, req.SessionID)
	}
	if !s.admission.tryAcquire(req.SessionID) {
		return fmt.Errorf("%w: %s", ErrSessionBusy, req.SessionID)
	}
	start := time.Now()

	p, err := newPipeline(req.Language, req.SessionID, s.scratchDir, s.toolchains)
	if err != nil {
		s.admission.release(req.SessionID)
		return err
	}
	if err := p.Prepare(req.Code); err != nil {
		s.admission.release(req.SessionID)
		return err
	}

	failure, err := p.Compile()
	if err != nil {
		// Compiler itself could not run. The pipeline already removed its
		// artifacts on this path.
		s.admission.release(req.SessionID)
		return err
	}
	if failure != nil {
		log.Info("compile step rejected submission",
			zap.Int("exit_code", failure.ExitCode))
		s.admission.release(req.SessionID)
		s.publishCompleted(ctx, req.SessionID, Result{
			Stderr:     failure.Stderr,
			ExitCode:   failure.ExitCode,
			DurationMs: time.Since(start).Milliseconds(),
		})
		return nil
	}

	cmd := p.Run()
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		p.Cleanup()
		s.admission.release(req.SessionID)
		return fmt.Errorf("failed to open stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		p.Cleanup()
		s.admission.release(req.SessionID)
		return fmt.Errorf("failed to open stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		p.Cleanup()
		s.admission.release(req.SessionID)
		return fmt.Errorf("failed to start %s: %w", cmd.Path, err)
	}

	s.registry.Track(req.SessionID, cmd)
	s.publishStateChanged(ctx, req.SessionID, true)
	log.Debug("execution started", zap.Int("pid", cmd.Process.Pid))

	go s.sequence(req.SessionID, p, stdout, stderr, start)
	return nil
}

// sequence is the per-run background task: drain both streams, reap the
// process, clean up artifacts unconditionally, then emit the terminal result
// and the final state flip. Exactly one terminal result per accepted run.
func (s *Supervisor) sequence(sessionID string, p pipeline, stdout, stderr io.Reader, start time.Time) {
	ctx := context.Background()

	stdoutText, stderrText := drainStreams(stdout, stderr, func(line, stream string) {
		s.publishOutput(ctx, sessionID, line, stream)
	})

	exitCode := exitCodeSentinel
	if cmd, ok := s.registry.Untrack(sessionID); ok {
		exitCode = waitExitCode(cmd)
	}

	p.Cleanup()
	s.admission.release(sessionID)

	s.publishCompleted(ctx, sessionID, Result{
		Stdout:     stdoutText,
		Stderr:     stderrText,
		ExitCode:   exitCode,
		DurationMs: time.Since(start).Milliseconds(),
	})
	s.publishStateChanged(ctx, sessionID, false)

	s.log.WithSessionID(sessionID).Debug("execution finished",
		zap.Int("exit_code", exitCode))
}

// Stop kills the session's tracked process, if any, and reports whether one
// was found. The in-flight sequencer observes end-of-stream shortly after
// and completes normally with the sentinel exit code.
func (s *Supervisor) Stop(sessionID string) bool {
	killed := s.registry.Kill(sessionID)
	if killed {
		s.log.WithSessionID(sessionID).Info("execution stopped")
	}
	return killed
}

// Teardown is the best-effort kill for a session going away. No result
// observation is guaranteed; the consumer may already be gone.
func (s *Supervisor) Teardown(sessionID string) {
	s.registry.Kill(sessionID)
}

// IsRunning reports whether the session has a tracked process.
func (s *Supervisor) IsRunning(sessionID string) bool {
	return s.registry.IsTracked(sessionID)
}

// ActiveSessions lists sessions with an execution in flight, including runs
// still in their compile step.
func (s *Supervisor) ActiveSessions() []string {
	return s.admission.list()
}

// validSessionID rejects keys that cannot safely become path components.
// Session keys are embedded in scratch file and directory names, so
// separators and traversal sequences would let a caller choose write and
// delete paths outside the scratch root.
func validSessionID(id string) bool {
	if id == "" || strings.Contains(id, "..") {
		return false
	}
	return !strings.ContainsAny(id, `/\`)
}

const exitCodeSentinel = -1

// waitExitCode reaps cmd and translates its status, defaulting to the
// sentinel when no code is reportable (killed by signal).
func waitExitCode(cmd *exec.Cmd) int {
	err := cmd.Wait()
	if err == nil {
		return cmd.ProcessState.ExitCode()
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		if code := exitErr.ExitCode(); code >= 0 {
			return code
		}
	}
	return exitCodeSentinel
}

func (s *Supervisor) publishOutput(ctx context.Context, sessionID, line, stream string) {
	event := bus.NewEvent(events.ExecutionOutput, eventSource, map[string]any{
		"sessionId": sessionID,
		"line":      line,
		"stream":    stream,
	})
	if err := s.bus.Publish(ctx, events.BuildExecutionOutputSubject(sessionID), event); err != nil {
		s.log.WithError(err).Warn("failed to publish output event")
	}
}

func (s *Supervisor) publishCompleted(ctx context.Context, sessionID string, res Result) {
	event := bus.NewEvent(events.ExecutionCompleted, eventSource, map[string]any{
		"sessionId":  sessionID,
		"stdout":     res.Stdout,
		"stderr":     res.Stderr,
		"exitCode":   res.ExitCode,
		"durationMs": res.DurationMs,
	})
	if err := s.bus.Publish(ctx, events.BuildExecutionCompletedSubject(sessionID), event); err != nil {
		s.log.WithError(err).Warn("failed to publish completed event")
	}
}

func (s *Supervisor) publishStateChanged(ctx context.Context, sessionID string, isRunning bool) {
	event := bus.NewEvent(events.ExecutionStateChanged, eventSource, map[string]any{
		"sessionId": sessionID,
		"isRunning": isRunning,
	})
	if err := s.bus.Publish(ctx, events.BuildExecutionStateChangedSubject(sessionID), event); err != nil {
		s.log.WithError(err).Warn("failed to publish state-changed event")
	}
}
