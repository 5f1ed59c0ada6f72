package pbxterm

import (
	"regexp"
	"strings"

	"github.com/vito/midterm"
)

// runVt220Locked implements the VT220 Protocol Engine (spec.md §4.4).
// Caller must hold t.mu.
func (t *Terminal) runVt220Locked(command string) (*Vt220Response, error) {
	if err := t.ensureModeLocked(ModeVT220); err != nil {
		return nil, err
	}

	t.Log.Infof("command: %s", command)
	t.session.sendLine(command)

	patterns := []*regexp.Regexp{
		patternVt220CommandPrompt,
		patternVt220Paging,
		patternVt220Success,
		patternVt220EndOfPage,
		patternVt220EndOfMonitor,
	}

	var (
		screens []string
		errMsg  string
	)

	morePages := true
	for morePages {
		morePages = false
		res := t.session.expect(patterns, t.CommandTimeout)
		if res.Err == ErrTimeout {
			errMsg = "PBX timeout"
			t.Log.Errorf("PBX timeout: %s\n%s", command, res.Before)
			break
		}
		if res.Err == ErrStreamEOF {
			errMsg = "PBX connection failed with EOF"
			t.Log.Errorf("PBX connection failed with EOF: %s\n%s", command, res.Before)
			break
		}

		screen := renderScreen(res.Before)
		screens = append(screens, screen)
		rows := strings.Split(screen, "\n")

		switch res.Index {
		case 0: // command prompt reached — possible error on row 23.
			var statusRow string
			if len(rows) > 22 {
				statusRow = strings.TrimSpace(rows[22])
			}
			if statusRow != "" && statusRow != "Command successfully completed" {
				errMsg = statusRow
				t.Log.Warnf("%s", errMsg)
			}
		case 1: // paging sentinel — request next page.
			morePages = true
			t.session.sendBytes(vt220NextPage)
		default: // end of a successful/single-page/monitor screen.
			if n, m, ok := parsePageOf(string(res.Before)); ok && n < m {
				morePages = true
				t.session.sendBytes(vt220NextPage)
			}
		}
	}

	t.Log.Infof("command complete")

	t.session.sendBytes(vt220Cancel)
	res := t.session.expect([]*regexp.Regexp{patternVt220CancelPrompt}, t.CommandTimeout)
	if res.Err == ErrTimeout {
		errMsg = "Timeout on vt220_command"
		t.Log.Errorf("%s: %s\n%s", errMsg, command, res.Before)
	} else if res.Err == ErrStreamEOF {
		errMsg = "Connection failed with EOF on vt220_command"
		t.Log.Errorf("%s: %s\n%s", errMsg, command, res.Before)
	}

	resp := &Vt220Response{Screens: screens}
	if errMsg != "" {
		resp.Error = errMsg
	}
	return resp, nil
}

// renderScreen feeds data through a fresh 80x24 virtual terminal and
// returns its rows joined by newline, matching the original's use of a
// throwaway pyte.Screen per matched chunk.
func renderScreen(data []byte) string {
	vt := midterm.NewTerminal(24, 80)
	vt.Write(data)
	rows := make([]string, 24)
	for i := 0; i < 24 && i < len(vt.Content); i++ {
		rows[i] = string(vt.Content[i])
	}
	return strings.Join(rows, "\n")
}

// parsePageOf extracts "Page N of M" and returns N and M as strings; the
// caller compares them as strings, not integers — see patternPageOf's
// comment.
func parsePageOf(s string) (n, m string, ok bool) {
	match := patternPageOf.FindStringSubmatch(s)
	if match == nil {
		return "", "", false
	}
	return match[1], match[2], true
}
