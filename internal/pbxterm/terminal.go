package pbxterm

import (
	"regexp"
	"strings"
	"sync"
	"time"
)

// connectPasswordTimeout and connectModeTimeout bound the connect-time
// waits; they are distinct from CommandTimeout, which governs command
// execution once a session is established.
const (
	connectInitialTimeout = 5 * time.Second
	connectPasswordTimeout = 10 * time.Second
	connectModeTimeout     = 5 * time.Second
	disconnectTimeout      = 5 * time.Second
)

// Terminal is the singleton-per-worker adapter that owns one child-process
// session to the PBX. All mutation of session/connectedMode happens under
// mu, held for the entire duration of SendPBXCommand so that two commands
// are never interleaved on the same child session.
type Terminal struct {
	ConnectionCommand string
	PBXUsername       string
	PBXPassword       string
	CommandTimeout    time.Duration

	Log Logger

	mu            sync.Mutex
	session       *childSession
	connectedMode *Mode
}

// NewTerminal constructs a Terminal. commandTimeout must be positive.
func NewTerminal(connectionCommand, pbxUsername, pbxPassword string, commandTimeout time.Duration, log Logger) *Terminal {
	if log == nil {
		log = nopLogger{}
	}
	return &Terminal{
		ConnectionCommand: connectionCommand,
		PBXUsername:       pbxUsername,
		PBXPassword:       pbxPassword,
		CommandTimeout:    commandTimeout,
		Log:               log,
	}
}

// lastLine returns the last non-empty line of a buffer, used to surface
// messages like "Too many logins" from EOF failures.
func lastLine(b []byte) string {
	lines := strings.Split(strings.TrimRight(string(b), "\r\n"), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimRight(lines[i], "\r")
		if line != "" {
			return line
		}
	}
	return ""
}

// Connect spawns the child session, waits for the password prompt, sends
// the password, and switches into OSSI mode. Connect runs exactly once per
// lifetime of a child session; callers hold Terminal for the process
// lifetime and call Connect once at startup (Reconnect calls it again after
// Disconnect).
func (t *Terminal) Connect() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.connectLocked()
}

func (t *Terminal) connectLocked() error {
	t.Log.Infof("connecting to pbx: %s", t.ConnectionCommand)
	sess, err := spawnChildSession(t.ConnectionCommand, connectInitialTimeout)
	if err != nil {
		return err
	}
	t.session = sess
	t.connectedMode = nil

	res := sess.expect([]*regexp.Regexp{patternPassword}, connectPasswordTimeout)
	if res.Err == ErrTimeout {
		t.Log.Errorf("connection timeout at password:\n%s", res.Before)
		return &ConnectTimeoutError{Stage: "at password"}
	}
	if res.Err == ErrStreamEOF {
		msg := lastLine(res.Before)
		t.Log.Errorf("connection failed with EOF at password: %s", msg)
		return &ConnectFailedError{Stage: "at password", Message: msg}
	}

	t.Log.Debugf("sending pbx_password")
	if err := sess.sendLine(t.PBXPassword); err != nil {
		return err
	}

	return t.ensureModeLocked(ModeOSSI)
}

// Disconnect logs off the current mode (if any) and tears down the child
// session. session and connectedMode are nulled unconditionally, even if
// the logoff handshake times out.
func (t *Terminal) Disconnect() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.disconnectLocked()
}

func (t *Terminal) disconnectLocked() {
	t.Log.Infof("disconnecting from pbx")
	if t.session != nil {
		if t.connectedMode != nil && *t.connectedMode == ModeVT220 {
			t.session.sendBytes(vt220Cancel)
			t.session.sendLine("logoff")
		} else {
			t.session.sendLine("c logoff")
			t.session.sendLine("t")
		}

		res := t.session.expect([]*regexp.Regexp{patternProceedLogoff}, disconnectTimeout)
		switch {
		case res.Err == ErrTimeout:
			t.Log.Errorf("timeout during disconnect:\n%s", res.Before)
		case res.Err == ErrStreamEOF:
			t.Log.Errorf("connection failed with EOF during disconnect:\n%s", res.Before)
		default:
			t.session.sendLine("y")
		}
		t.session.close()
	}
	t.session = nil
	t.connectedMode = nil
	t.Log.Infof("connection closed")
}

// Reconnect disconnects (if connected) and connects again.
func (t *Terminal) Reconnect() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Log.Infof("reconnecting...")
	t.disconnectLocked()
	return t.connectLocked()
}

// Connected reports whether the mode-entry prompt has been consumed for the
// session currently held, i.e. whether a command can run without first
// reconnecting.
func (t *Terminal) Connected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.session != nil && t.connectedMode != nil
}

// SendPBXCommand is the facade used by the HTTP layer: it maps modeToken to
// a Mode and dispatches to the OSSI or VT220 engine, holding the Terminal's
// lock for the full duration so commands are strictly serialized. Wire-level
// failures (timeouts, PBX error lines) are folded into the returned value;
// only connection establishment failures are returned as an error.
func (t *Terminal) SendPBXCommand(modeToken, command string, fields map[string]string, debug bool) (any, error) {
	mode, ok := ParseMode(modeToken)
	if !ok {
		return &UnknownTermtypeResponse{Error: "Unknown termtype. Must be ossi or vt220."}, nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	switch mode {
	case ModeVT220:
		return t.runVt220Locked(command)
	default:
		return t.runOssiLocked(command, fields, debug)
	}
}
