package runner

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// interpretedPipeline runs script languages (python, javascript, typescript):
// one scratch file, no compile step, interpreter invoked with the file path
// as the final argument.
type interpretedPipeline struct {
	toolchain Toolchain
	filePath  string
}

func newInterpretedPipeline(sessionID, scratchDir string, tc Toolchain) *interpretedPipeline {
	return &interpretedPipeline{
		toolchain: tc,
		filePath:  filepath.Join(scratchDir, fmt.Sprintf("codecell_%s.%s", sessionID, tc.Extension)),
	}
}

func (p *interpretedPipeline) Prepare(code string) error {
	if err := os.WriteFile(p.filePath, []byte(code), 0o644); err != nil {
		return fmt.Errorf("failed to write scratch file: %w", err)
	}
	return nil
}

func (p *interpretedPipeline) Compile() (*compileFailure, error) {
	return nil, nil
}

func (p *interpretedPipeline) Run() *exec.Cmd {
	args := append(append([]string{}, p.toolchain.ExtraArgs...), p.filePath)
	return exec.Command(p.toolchain.Command, args...)
}

func (p *interpretedPipeline) Cleanup() {
	_ = os.Remove(p.filePath)
}
