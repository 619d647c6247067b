package runner

import (
	"bufio"
	"io"
	"strings"

	"golang.org/x/sync/errgroup"
)

const (
	streamStdout = "stdout"
	streamStderr = "stderr"
)

// drainStreams reads stdout and stderr concurrently as newline-delimited
// lines, calling emit for each line as it arrives and accumulating the full
// text of each stream. Lines keep their terminators; a trailing partial line
// is flushed when its stream ends. Draining one stream never blocks the
// other. emit may be called from both readers concurrently and must be safe
// for that.
func drainStreams(stdout, stderr io.Reader, emit func(line, stream string)) (string, string) {
	var outBuf, errBuf strings.Builder

	var g errgroup.Group
	g.Go(func() error {
		drainLines(stdout, streamStdout, &outBuf, emit)
		return nil
	})
	g.Go(func() error {
		drainLines(stderr, streamStderr, &errBuf, emit)
		return nil
	})
	_ = g.Wait()

	return outBuf.String(), errBuf.String()
}

// drainLines reads r to end-of-stream. Read errors end draining the same way
// EOF does: a killed process closes its pipes, and the dying read is not an
// error worth surfacing.
func drainLines(r io.Reader, stream string, buf *strings.Builder, emit func(line, stream string)) {
	reader := bufio.NewReader(r)
	for {
		line, err := reader.ReadString('\n')
		if len(line) > 0 {
			buf.WriteString(line)
			emit(line, stream)
		}
		if err != nil {
			return
		}
	}
}
