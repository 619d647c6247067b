package runner

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

const (
	javaClassMarker  = "public class "
	defaultJavaClass = "Main"
)

// javaPipeline is the directory-based compiled variant: the source file name
// must match the declared public class, and the compiler writes sibling
// .class files next to it. Everything lives in a per-session scratch
// directory that is removed recursively on cleanup.
type javaPipeline struct {
	toolchain Toolchain
	dir       string
	className string
}

func newJavaPipeline(sessionID, scratchDir string, tc Toolchain) *javaPipeline {
	return &javaPipeline{
		toolchain: tc,
		dir:       filepath.Join(scratchDir, "codecell_java_"+sessionID),
	}
}

// deriveJavaClassName scans for the first line that, after trimming, starts
// with the public class marker and returns the run of identifier characters
// following it. Sources without such a line get the default name.
func deriveJavaClassName(code string) string {
	for _, line := range strings.Split(code, "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, javaClassMarker) {
			continue
		}
		rest := trimmed[len(javaClassMarker):]
		end := 0
		for end < len(rest) && isJavaIdentChar(rest[end]) {
			end++
		}
		if end > 0 {
			return rest[:end]
		}
	}
	return defaultJavaClass
}

func isJavaIdentChar(c byte) bool {
	return c == '_' ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9')
}

func (p *javaPipeline) Prepare(code string) error {
	p.className = deriveJavaClassName(code)
	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create scratch directory: %w", err)
	}
	sourcePath := filepath.Join(p.dir, p.className+"."+p.toolchain.Extension)
	if err := os.WriteFile(sourcePath, []byte(code), 0o644); err != nil {
		return fmt.Errorf("failed to write scratch file: %w", err)
	}
	return nil
}

func (p *javaPipeline) Compile() (*compileFailure, error) {
	cmd := exec.Command(p.toolchain.Compiler, p.className+"."+p.toolchain.Extension)
	cmd.Dir = p.dir
	failure, err := runCompiler(cmd)
	if err != nil {
		_ = os.RemoveAll(p.dir)
		return nil, err
	}
	if failure != nil {
		_ = os.RemoveAll(p.dir)
		return failure, nil
	}
	return nil, nil
}

func (p *javaPipeline) Run() *exec.Cmd {
	cmd := exec.Command(p.toolchain.Command, p.className)
	cmd.Dir = p.dir
	return cmd
}

func (p *javaPipeline) Cleanup() {
	_ = os.RemoveAll(p.dir)
}
