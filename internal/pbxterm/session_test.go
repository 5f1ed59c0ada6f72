package pbxterm

import (
	"regexp"
	"testing"
	"time"
)

func TestSpawnChildSession_ExpectMatchesAndBuffers(t *testing.T) {
	s, err := spawnChildSession(`sh -c 'printf "Password: "; read x; printf "ok %s\n" "$x"'`, time.Second)
	if err != nil {
		t.Fatalf("spawnChildSession: %v", err)
	}
	defer s.close()

	res := s.expect([]*regexp.Regexp{regexp.MustCompile(`Password: `)}, 2*time.Second)
	if res.Err != nil {
		t.Fatalf("expect password prompt: %v", res.Err)
	}
	if res.Index != 0 {
		t.Fatalf("Index = %d, want 0", res.Index)
	}

	if err := s.sendLine("hunter2"); err != nil {
		t.Fatalf("sendLine: %v", err)
	}

	res = s.expect([]*regexp.Regexp{regexp.MustCompile(`ok \S+`)}, 2*time.Second)
	if res.Err != nil {
		t.Fatalf("expect echo: %v", res.Err)
	}
	if string(res.Match) != "ok hunter2" {
		t.Errorf("Match = %q, want %q", res.Match, "ok hunter2")
	}
}

func TestSpawnChildSession_ExpectTimeout(t *testing.T) {
	s, err := spawnChildSession(`sh -c "sleep 5"`, time.Second)
	if err != nil {
		t.Fatalf("spawnChildSession: %v", err)
	}
	defer s.close()

	res := s.expect([]*regexp.Regexp{regexp.MustCompile(`never`)}, 100*time.Millisecond)
	if res.Err != ErrTimeout {
		t.Fatalf("Err = %v, want ErrTimeout", res.Err)
	}
}

func TestSpawnChildSession_ExpectEOF(t *testing.T) {
	s, err := spawnChildSession(`sh -c "echo bye"`, time.Second)
	if err != nil {
		t.Fatalf("spawnChildSession: %v", err)
	}
	defer s.close()

	res := s.expect([]*regexp.Regexp{regexp.MustCompile(`never`)}, 2*time.Second)
	if res.Err != ErrStreamEOF {
		t.Fatalf("Err = %v, want ErrStreamEOF", res.Err)
	}
	if string(res.Before) != "bye\r\n" && string(res.Before) != "bye\n" {
		t.Errorf("Before = %q, want the buffered greeting before EOF", res.Before)
	}
}

func TestScanPatterns_EarliestStartBeatsLowerIndex(t *testing.T) {
	buf := []byte("xxAAAyy")
	patterns := []*regexp.Regexp{
		regexp.MustCompile(`yy`),
		regexp.MustCompile(`AAA`),
	}
	idx, before, match, ok := scanPatterns(buf, patterns)
	if !ok {
		t.Fatal("expected a match")
	}
	if idx != 1 {
		t.Errorf("idx = %d, want 1 (AAA starts earlier than yy)", idx)
	}
	if string(before) != "xx" {
		t.Errorf("before = %q, want %q", before, "xx")
	}
	if string(match) != "AAA" {
		t.Errorf("match = %q, want %q", match, "AAA")
	}
}

func TestScanPatterns_EqualStartPrefersLowerIndex(t *testing.T) {
	buf := []byte("AAAA")
	patterns := []*regexp.Regexp{
		regexp.MustCompile(`AAAA`),
		regexp.MustCompile(`AA`),
	}
	idx, _, match, ok := scanPatterns(buf, patterns)
	if !ok {
		t.Fatal("expected a match")
	}
	if idx != 0 {
		t.Errorf("idx = %d, want 0", idx)
	}
	if string(match) != "AAAA" {
		t.Errorf("match = %q, want %q", match, "AAAA")
	}
}
