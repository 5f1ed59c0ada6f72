package pbxterm

import "regexp"

// Named regular expressions for the fixed strings and escape sequences the
// PBX terminal emits. Grouped here so the expect loops in mode.go, ossi.go,
// and vt220.go read as a list of named patterns rather than inline regexps.
var (
	patternPassword     = regexp.MustCompile(`Password:`)
	patternTermTypeAsk  = regexp.MustCompile(`Terminal Type \(.+\): \[.+\]`)
	patternModeEntryOSSI = regexp.MustCompile(`t[\r\n]+`)
	// patternModeEntryVT220 matches the cursor-to-row-2-column-1 + erase-line + "Command: "
	// sequence the PBX emits once vt220 mode is live.
	patternModeEntryVT220 = regexp.MustCompile(`\x1b\[2;1H.*\x1b\[KCommand: `)
	patternProceedLogoff = regexp.MustCompile(`Proceed With Logoff`)

	// OSSI line prefixes, one per line, CRLF-terminated.
	patternOssiField = regexp.MustCompile(`f[\S\t]+[\r\n]+`)
	patternOssiData  = regexp.MustCompile(`d[\S\t ]*[\r\n]+`)
	patternOssiError = regexp.MustCompile(`e[\S\t ]+[\r\n]+`)
	patternOssiNext  = regexp.MustCompile(`n[\r\n]+`)
	patternOssiTerm  = regexp.MustCompile(`t[\r\n]+`)
	patternOssiEcho  = regexp.MustCompile(`c [\S ]+[\r\n]+`)

	// VT220 screen sentinels.
	patternVt220CommandPrompt = regexp.MustCompile(`\[KCommand: `)
	patternVt220Paging        = regexp.MustCompile(`press CANCEL to quit --  press NEXT PAGE to continue`)
	patternVt220Success       = regexp.MustCompile(`Command successfully completed`)
	patternVt220EndOfPage     = regexp.MustCompile(`\x1b\[\d;\d\dH\x1b\[0m`)
	patternVt220EndOfMonitor  = regexp.MustCompile(`\x1b\[23;80H`)
	patternVt220CancelPrompt  = regexp.MustCompile(`\[KCommand:`)

	// patternPageOf captures the two page numbers, which the VT220 loop then
	// compares as strings, not integers — this reproduces a bug present in
	// the original implementation where "Page  2 of 10" does not count as
	// having more pages ("2" sorts after "10"). See SPEC_FULL.md Open
	// Question (b): flagged, not silently fixed.
	patternPageOf = regexp.MustCompile(`Page +(\d+) of +(\d+)`)
)

// vt220 function keys.
var (
	vt220Cancel   = []byte{0x1b, '[', '3', '~'}
	vt220NextPage = []byte{0x1b, '[', '6', '~'}
)
