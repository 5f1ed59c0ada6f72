package httpapi

import (
	"testing"
	"time"

	"github.com/uw-it-ist/pbxd/internal/pbxterm"
)

// fakePBXScript emulates just enough of a Definity OSSI login session to
// exercise the HTTP layer end to end: a password prompt, immediate entry
// into OSSI mode, and one field/data/terminator response cycle per command.
const fakePBXScript = `bash -c '
stty -echo 2>/dev/null
printf "Password: "
read -r pw
printf "\r\nTerminal Type (513): [ossi4]\r\n"
read -r ttype
printf "t\r\n"
fline=""
dline=""
while IFS= read -r cmd; do
  case "$cmd" in
    f*)
      fline="$cmd"
      ;;
    d*)
      dline="$cmd"
      ;;
    t)
      printf "%s\r\n" "$fline"
      printf "%s\r\n" "$dline"
      printf "n\r\n"
      printf "t\r\n"
      fline=""
      dline=""
      ;;
  esac
done
'`

func newTestServer(t *testing.T) *Server {
	t.Helper()
	term := pbxterm.NewTerminal(fakePBXScript, "uw01", "hunter2", 2*time.Second, nil)
	if err := term.Connect(); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(term.Disconnect)
	return &Server{Terminal: term, PBXName: "uw01"}
}
