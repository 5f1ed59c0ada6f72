package pbxterm

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"regexp"
	"sync"
	"time"

	"github.com/creack/pty"
	"github.com/google/shlex"
)

// ErrTimeout is returned by expect when no pattern matches before the
// deadline. ErrStreamEOF is returned when the child's output stream ends
// (process exit, or the PTY returning EIO once the child is gone).
var (
	ErrTimeout   = errors.New("expect: timeout")
	ErrStreamEOF = errors.New("expect: end of stream")
)

// MatchResult is the outcome of a childSession.expect call.
type MatchResult struct {
	// Index is the index into the patterns slice that matched, or -1 if Err
	// is set (timeout or EOF fired instead of a pattern).
	Index int
	// Before is the buffered output that preceded the match.
	Before []byte
	// Match is the bytes of the match itself.
	Match []byte
	// Err is ErrTimeout, ErrStreamEOF, or nil.
	Err error
}

// childSession wraps one spawned interactive subprocess: a shell-style
// connection command (ssh/telnet/openssl s_client) running under a PTY,
// offering line/byte send and an expect primitive over its combined
// stdout+stderr stream. Modeled on the teacher's virtualterminal.VT, pared
// down to what a programmatic (non-interactive-display) driver needs.
type childSession struct {
	cmd *exec.Cmd
	ptm *os.File

	readMu sync.Mutex // guards buf and readErr; held only inside expect

	buf     bytes.Buffer
	readErr error // set once the PTY read loop observes EOF/error

	dataCh chan []byte
	errCh  chan error

	exitMu   sync.Mutex
	exited   bool
	exitErr  error
}

// spawnChildSession starts connectionCommand under a PTY. initialTimeout
// bounds nothing here (pty.StartWithSize returns once the process is
// forked); it exists on the signature to mirror spec.md's
// spawn(command, initial_timeout) and is not used. Each later expect call
// passes its own timeout (connect waits on connectPasswordTimeout first).
func spawnChildSession(connectionCommand string, initialTimeout time.Duration) (*childSession, error) {
	argv, err := shlex.Split(connectionCommand)
	if err != nil {
		return nil, fmt.Errorf("parse connection command: %w", err)
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("empty connection command")
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	ptm, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: 24, Cols: 80})
	if err != nil {
		return nil, fmt.Errorf("spawn connection command: %w", err)
	}

	s := &childSession{
		cmd:    cmd,
		ptm:    ptm,
		dataCh: make(chan []byte, 16),
		errCh:  make(chan error, 1),
	}
	go s.readLoop()
	go s.waitLoop()
	return s, nil
}

func (s *childSession) readLoop() {
	buf := make([]byte, 4096)
	for {
		n, err := s.ptm.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			s.dataCh <- chunk
		}
		if err != nil {
			s.errCh <- err
			return
		}
	}
}

func (s *childSession) waitLoop() {
	err := s.cmd.Wait()
	s.exitMu.Lock()
	s.exited = true
	s.exitErr = err
	s.exitMu.Unlock()
}

// isAlive reports whether the child process has not yet exited.
func (s *childSession) isAlive() bool {
	s.exitMu.Lock()
	defer s.exitMu.Unlock()
	return !s.exited
}

// sendLine writes text followed by a newline.
func (s *childSession) sendLine(text string) error {
	_, err := io.WriteString(s.ptm, text+"\n")
	return err
}

// sendBytes writes raw bytes (used for VT220 function keys).
func (s *childSession) sendBytes(b []byte) error {
	_, err := s.ptm.Write(b)
	return err
}

// close terminates the child (best effort) and releases resources.
func (s *childSession) close() {
	if s.cmd.Process != nil {
		s.cmd.Process.Kill()
	}
	s.ptm.Close()
}

// expect scans the incoming byte stream, accumulating bytes until one of
// patterns matches or a sentinel (timeout, end-of-stream) fires. Patterns
// are tried simultaneously; the earliest-matching prefix of buffered output
// wins; ties break by lowest pattern index. Bytes consumed are those up to
// and including the match; the remainder stays buffered for the next call.
func (s *childSession) expect(patterns []*regexp.Regexp, timeout time.Duration) MatchResult {
	s.readMu.Lock()
	defer s.readMu.Unlock()

	if idx, before, match, ok := scanPatterns(s.buf.Bytes(), patterns); ok {
		s.buf.Next(len(before) + len(match))
		return MatchResult{Index: idx, Before: before, Match: match}
	}
	if s.readErr != nil {
		return MatchResult{Index: -1, Before: s.drainBuffered(), Err: ErrStreamEOF}
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		select {
		case chunk := <-s.dataCh:
			s.buf.Write(chunk)
			if idx, before, match, ok := scanPatterns(s.buf.Bytes(), patterns); ok {
				s.buf.Next(len(before) + len(match))
				return MatchResult{Index: idx, Before: before, Match: match}
			}
		case err := <-s.errCh:
			s.readErr = err
			// readLoop enqueues any final chunk on dataCh before sending here,
			// but select doesn't prefer one ready case over another — drain
			// whatever is already queued so the last line before EOF isn't
			// lost, and give it one more chance to complete a pattern match.
			s.drainPendingChunks()
			if idx, before, match, ok := scanPatterns(s.buf.Bytes(), patterns); ok {
				s.buf.Next(len(before) + len(match))
				return MatchResult{Index: idx, Before: before, Match: match}
			}
			return MatchResult{Index: -1, Before: s.drainBuffered(), Err: ErrStreamEOF}
		case <-deadline.C:
			return MatchResult{Index: -1, Before: s.drainBuffered(), Err: ErrTimeout}
		}
	}
}

// drainPendingChunks moves any chunks already queued on dataCh into s.buf
// without blocking. Used once the read loop has reported EOF/error, since a
// final chunk can be sitting in the channel ahead of, or racing with, that
// error on the select.
func (s *childSession) drainPendingChunks() {
	for {
		select {
		case chunk := <-s.dataCh:
			s.buf.Write(chunk)
		default:
			return
		}
	}
}

// drainBuffered returns and clears whatever is currently buffered, used when
// a sentinel fires instead of a pattern match.
func (s *childSession) drainBuffered() []byte {
	b := append([]byte(nil), s.buf.Bytes()...)
	s.buf.Reset()
	return b
}

// scanPatterns tries every pattern against buf and returns the
// earliest-starting match. Ties (equal start offset) are broken by lowest
// pattern index because patterns are scanned in order and only a strictly
// earlier start replaces the current best.
func scanPatterns(buf []byte, patterns []*regexp.Regexp) (idx int, before, match []byte, ok bool) {
	bestIdx := -1
	var bestLoc []int
	for i, p := range patterns {
		loc := p.FindIndex(buf)
		if loc == nil {
			continue
		}
		if bestLoc == nil || loc[0] < bestLoc[0] {
			bestLoc = loc
			bestIdx = i
		}
	}
	if bestLoc == nil {
		return 0, nil, nil, false
	}
	return bestIdx, buf[:bestLoc[0]], buf[bestLoc[0]:bestLoc[1]], true
}
