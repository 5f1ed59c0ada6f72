package pbxterm

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"
)

// recordingLogger captures every log line written through it so tests can
// assert on what got logged, without caring about timestamps or formatting.
type recordingLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *recordingLogger) record(level, format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, level+": "+fmt.Sprintf(format, args...))
}

func (l *recordingLogger) Debugf(format string, args ...any) { l.record("DEBUG", format, args...) }
func (l *recordingLogger) Infof(format string, args ...any)  { l.record("INFO", format, args...) }
func (l *recordingLogger) Warnf(format string, args ...any)  { l.record("WARN", format, args...) }
func (l *recordingLogger) Errorf(format string, args ...any) { l.record("ERROR", format, args...) }

func (l *recordingLogger) contains(substr string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, line := range l.lines {
		if strings.Contains(line, substr) {
			return true
		}
	}
	return false
}

// fakeDuplicateFieldScript answers any command with a single record whose
// field-id list repeats "x", regardless of what the client requested, and
// handles the logoff handshake like a real session.
const fakeDuplicateFieldScript = `bash -c '
stty -echo 2>/dev/null
printf "Password: "
read -r pw
printf "\r\nTerminal Type (513): [ossi4]\r\n"
read -r ttype
printf "t\r\n"
lastcmd=""
while IFS= read -r cmd; do
  case "$cmd" in
    "c "*)
      lastcmd="$cmd"
      ;;
    t)
      if [ "$lastcmd" = "c logoff" ]; then
        printf "Proceed With Logoff (y/n)?\r\n"
        read -r yn
        exit 0
      fi
      printf "fx\ty\tx\r\n"
      printf "d1\t2\t3\r\n"
      printf "t\r\n"
      ;;
  esac
done
'`

func TestRunOssi_DuplicateFieldIDLogsAndShrinksRecord(t *testing.T) {
	logger := &recordingLogger{}
	term := NewTerminal(fakeDuplicateFieldScript, "uw01", "hunter2", 2*time.Second, logger)
	if err := term.Connect(); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer term.Disconnect()

	resp, err := term.SendPBXCommand("ossi", "display time", nil, false)
	if err != nil {
		t.Fatalf("SendPBXCommand: %v", err)
	}
	ossiResp, ok := resp.(*OssiResponse)
	if !ok {
		t.Fatalf("response type = %T, want *OssiResponse", resp)
	}
	if len(ossiResp.Objects) != 1 {
		t.Fatalf("len(Objects) = %d, want 1", len(ossiResp.Objects))
	}
	record := ossiResp.Objects[0]
	if record.Len() != 2 {
		t.Fatalf("record.Len() = %d, want 2 (3 ids with one duplicate)", record.Len())
	}
	if v, _ := record.Get("x"); v != "3" {
		t.Errorf(`Get("x") = %q, want "3" (last value wins)`, v)
	}
	if !logger.contains("duplicate field ids") {
		t.Errorf("expected a duplicate field id warning to be logged, got: %v", logger.lines)
	}
}
