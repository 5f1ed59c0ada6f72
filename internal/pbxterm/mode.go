package pbxterm

import "regexp"

// ensureModeLocked makes sure the session is in target mode before a
// command runs. Caller must hold t.mu. If the session is dead it
// reconnects first, which leaves the new session in OSSI mode.
func (t *Terminal) ensureModeLocked(target Mode) error {
	if t.session == nil || !t.session.isAlive() {
		t.Log.Errorf("dead session, reconnecting")
		if err := func() error {
			t.disconnectLocked()
			return t.connectLocked()
		}(); err != nil {
			return err
		}
		// connectLocked() already drove mode selection to ModeOSSI as part
		// of establishing the session; if that's also the target we're done.
		if t.connectedMode != nil && *t.connectedMode == target {
			return nil
		}
	}

	if t.connectedMode != nil && *t.connectedMode == target {
		return nil
	}

	if t.connectedMode != nil {
		switch *t.connectedMode {
		case ModeOSSI:
			t.session.sendLine("c newterm")
			t.session.sendLine("t")
		case ModeVT220:
			t.session.sendLine("newterm")
		}
	}

	res := t.session.expect([]*regexp.Regexp{patternTermTypeAsk}, connectModeTimeout)
	if res.Err == ErrTimeout {
		t.Log.Errorf("timeout on termtype:\n%s", res.Before)
		return &ModeSwitchFailedError{Message: lastLine(res.Before)}
	}
	if res.Err == ErrStreamEOF {
		t.Log.Errorf("connection failed with EOF at termtype:\n%s", res.Before)
		return &ModeSwitchFailedError{Message: lastLine(res.Before)}
	}

	t.Log.Debugf("selecting termtype %s", target)
	if err := t.session.sendLine(target.wireToken()); err != nil {
		return err
	}

	var entryPattern *regexp.Regexp
	if target == ModeVT220 {
		entryPattern = patternModeEntryVT220
	} else {
		entryPattern = patternModeEntryOSSI
	}
	res = t.session.expect([]*regexp.Regexp{entryPattern}, connectModeTimeout)
	if res.Err == ErrTimeout {
		t.Log.Errorf("timeout on command prompt verify:\n%s", res.Before)
		return &ModeSwitchFailedError{Message: lastLine(res.Before)}
	}
	if res.Err == ErrStreamEOF {
		t.Log.Errorf("connection failed with EOF at command prompt verify:\n%s", res.Before)
		return &ModeSwitchFailedError{Message: lastLine(res.Before)}
	}

	mode := target
	t.connectedMode = &mode
	return nil
}
