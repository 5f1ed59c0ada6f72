package pbxterm

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// runOssiLocked implements the OSSI Protocol Engine (spec.md §4.3). Caller
// must hold t.mu.
func (t *Terminal) runOssiLocked(command string, fields map[string]string, debug bool) (*OssiResponse, error) {
	if err := t.ensureModeLocked(ModeOSSI); err != nil {
		return nil, err
	}

	t.Log.Infof("command: %s", command)
	t.session.sendLine("c " + command)

	if len(fields) > 0 {
		ids := sortedKeys(fields)
		idLine := strings.Join(ids, "\t")
		values := make([]string, len(ids))
		for i, id := range ids {
			values[i] = fields[id]
		}
		dataLine := strings.Join(values, "\t")
		t.Log.Debugf("send: f%s", idLine)
		t.session.sendLine("f" + idLine)
		t.Log.Debugf("send: d%s", dataLine)
		t.session.sendLine("d" + dataLine)
	}

	t.session.sendLine("t")

	patterns := []*regexp.Regexp{
		patternOssiField,
		patternOssiData,
		patternOssiError,
		patternOssiNext,
		patternOssiTerm,
		patternOssiEcho,
	}

	var (
		fieldIDs []string
		data     []string
		errs     []string
		objects  = []OssiRecord{}
		rawLines []string
	)

	closeRecord := func() {
		if len(data) == 0 {
			return
		}
		if len(fieldIDs) != len(data) {
			t.Log.Errorf("corrupt object: %d fields, %d values", len(fieldIDs), len(data))
		}
		record := NewOssiRecord(fieldIDs, data)
		pairs := len(fieldIDs)
		if len(data) < pairs {
			pairs = len(data)
		}
		if record.Len() < pairs {
			keys := make([]string, record.Len())
			for i, f := range record.Fields() {
				keys[i] = f.ID
			}
			t.Log.Errorf("duplicate field ids detected %v != %v", fieldIDs, keys)
		}
		objects = append(objects, record)
		data = nil
	}

	for {
		res := t.session.expect(patterns, t.CommandTimeout)
		if res.Err == ErrTimeout {
			errs = append(errs, "PBX timeout")
			t.Log.Errorf("PBX timeout: %s\n%s", command, res.Before)
			break
		}
		if res.Err == ErrStreamEOF {
			errs = append(errs, "PBX connection failed with EOF")
			t.Log.Errorf("PBX connection failed with EOF: %s\n%s", command, res.Before)
			break
		}

		raw := string(res.Match)
		rawLines = append(rawLines, raw)
		trimmed := strings.TrimRight(raw[1:], "\r\n")

		switch res.Index {
		case 0: // f: field-id list — accumulates across multiple f lines.
			ids := strings.Split(trimmed, "\t")
			t.Log.Debugf("f %d %v", len(ids), ids)
			fieldIDs = append(fieldIDs, ids...)
		case 1: // d: data values for the in-progress record.
			vals := strings.Split(trimmed, "\t")
			t.Log.Debugf("d %d %v", len(vals), vals)
			data = append(data, vals...)
		case 2: // e: error line — "e<code1> <code2> <code3> <message...>"
			parts := strings.SplitN(trimmed, " ", 4)
			if len(parts) == 4 {
				msg := fmt.Sprintf("%s %s", parts[1], parts[3])
				errs = append(errs, msg)
				t.Log.Warnf("error: %s", msg)
			}
		case 3: // n: record separator.
			closeRecord()
		case 4: // t: command terminator.
			closeRecord()
			t.Log.Infof("command output complete")
			return t.shapeOssi(objects, errs, rawLines, debug), nil
		case 5: // c: echoed command, ignored.
		}
	}

	return t.shapeOssi(objects, errs, rawLines, debug), nil
}

func (t *Terminal) shapeOssi(objects []OssiRecord, errs, rawLines []string, debug bool) *OssiResponse {
	resp := &OssiResponse{Objects: objects}
	if len(errs) > 0 {
		resp.Error = strings.Join(errs, "\n")
	}
	if debug {
		resp.Debug = rawLines
	}
	return resp
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
