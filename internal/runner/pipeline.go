package runner

import (
	"bytes"
	"fmt"
	"os/exec"
)

// compileFailure carries the diagnostics of a failed compile step. It is a
// normal outcome of a run, not an error: the supervisor short-circuits it
// into a terminal result without ever spawning a process.
type compileFailure struct {
	Stderr   string
	ExitCode int
}

// pipeline is the per-language recipe for one execution. Implementations own
// the scratch artifacts they create; Cleanup removes them best-effort and is
// called exactly once on every exit path.
type pipeline interface {
	// Prepare writes the scratch artifacts for the submitted code.
	Prepare(code string) error
	// Compile runs the compile step if the language has one. A non-nil
	// compileFailure means the compiler rejected the code; the pipeline has
	// already removed the artifacts the short-circuit contract requires.
	Compile() (*compileFailure, error)
	// Run returns an unstarted command for the run phase.
	Run() *exec.Cmd
	// Cleanup removes all remaining artifacts, swallowing errors.
	Cleanup()
}

// newPipeline builds the pipeline variant for lang using its toolchain.
func newPipeline(lang Language, sessionID, scratchDir string, chains Toolchains) (pipeline, error) {
	tc, ok := chains[lang]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, lang)
	}
	switch lang {
	case LanguagePython, LanguageJavaScript, LanguageTypeScript:
		return newInterpretedPipeline(sessionID, scratchDir, tc), nil
	case LanguageRust:
		return newRustPipeline(sessionID, scratchDir, tc), nil
	case LanguageJava:
		return newJavaPipeline(sessionID, scratchDir, tc), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, lang)
	}
}

// runCompiler executes a compile command to completion, capturing stderr and
// translating the exit status. A nil compileFailure with nil error means the
// compile succeeded.
func runCompiler(cmd *exec.Cmd) (*compileFailure, error) {
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return nil, nil
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		return &compileFailure{
			Stderr:   stderr.String(),
			ExitCode: exitErr.ExitCode(),
		}, nil
	}
	// The compiler could not be started at all (missing binary, bad path).
	return nil, fmt.Errorf("failed to run compiler %s: %w", cmd.Path, err)
}
