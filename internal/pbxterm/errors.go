package pbxterm

import "fmt"

// ConnectTimeoutError is raised when connect() times out waiting for the
// password prompt. A timeout at the terminal-type or mode-entry prompt is
// reported as ModeSwitchFailedError instead.
type ConnectTimeoutError struct {
	Stage string // "at password"
}

func (e *ConnectTimeoutError) Error() string {
	return fmt.Sprintf("connection timeout %s", e.Stage)
}

// ConnectFailedError is raised when the child stream ends (EOF) before the
// password prompt appears; EOF at the terminal-type or mode-entry prompt is
// reported as ModeSwitchFailedError. Message carries the last line of
// buffered output, which is how "Too many logins" surfaces.
type ConnectFailedError struct {
	Stage   string
	Message string
}

func (e *ConnectFailedError) Error() string {
	return fmt.Sprintf("connection failed with EOF %s: %s", e.Stage, e.Message)
}

// ModeSwitchFailedError is raised when the termtype prompt dance times out
// or hits EOF.
type ModeSwitchFailedError struct {
	Message string
}

func (e *ModeSwitchFailedError) Error() string {
	return fmt.Sprintf("mode switch failed: %s", e.Message)
}
