package runner

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// rustPipeline compiles a single source file to a binary and runs it.
// Artifacts are the source and the binary, both keyed by session.
type rustPipeline struct {
	toolchain  Toolchain
	sourcePath string
	binaryPath string
}

func newRustPipeline(sessionID, scratchDir string, tc Toolchain) *rustPipeline {
	return &rustPipeline{
		toolchain:  tc,
		sourcePath: filepath.Join(scratchDir, fmt.Sprintf("codecell_%s.%s", sessionID, tc.Extension)),
		binaryPath: filepath.Join(scratchDir, fmt.Sprintf("codecell_%s_bin", sessionID)),
	}
}

func (p *rustPipeline) Prepare(code string) error {
	if err := os.WriteFile(p.sourcePath, []byte(code), 0o644); err != nil {
		return fmt.Errorf("failed to write scratch file: %w", err)
	}
	return nil
}

// Compile invokes the compiler with an explicit output path. On rejection the
// source artifact is removed immediately so the short-circuited terminal
// result leaves nothing behind.
func (p *rustPipeline) Compile() (*compileFailure, error) {
	cmd := exec.Command(p.toolchain.Compiler, p.sourcePath, "-o", p.binaryPath)
	failure, err := runCompiler(cmd)
	if err != nil {
		_ = os.Remove(p.sourcePath)
		return nil, err
	}
	if failure != nil {
		_ = os.Remove(p.sourcePath)
		return failure, nil
	}
	return nil, nil
}

func (p *rustPipeline) Run() *exec.Cmd {
	return exec.Command(p.binaryPath)
}

func (p *rustPipeline) Cleanup() {
	_ = os.Remove(p.sourcePath)
	_ = os.Remove(p.binaryPath)
}
