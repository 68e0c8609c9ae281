package id

import (
	"strings"
	"sync"
	"testing"
	"time"
)

func TestGenerate(t *testing.T) {
	gen := NewGenerator()

	id1 := gen.Generate()
	id2 := gen.Generate()

	if id1.String() == id2.String() {
		t.Error("Generated IDs should be unique")
	}
}

func TestGenerateString(t *testing.T) {
	gen := NewGenerator()

	s := gen.GenerateString()
	if len(s) != 26 {
		t.Errorf("ULID should be 26 characters, got %d", len(s))
	}
}

func TestTypedIDGeneration(t *testing.T) {
	tests := []struct {
		name   string
		value  string
		prefix string
	}{
		{"trace", NewTraceID().String(), TracePrefix},
		{"span", NewSpanID().String(), SpanPrefix},
		{"client", NewClientID().String(), ClientPrefix},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !strings.HasPrefix(tt.value, tt.prefix+"_") {
				t.Errorf("ID should start with '%s_', got: %s", tt.prefix, tt.value)
			}
			if !IsValid(tt.value) {
				t.Errorf("prefixed ID should parse: %s", tt.value)
			}
		})
	}
}

func TestIsValid(t *testing.T) {
	invalid := []string{
		"",
		"invalid",
		"trc_",
		"zzzzzzzzzzzzzzzzzzzzzzzzzzz",
	}

	for _, s := range invalid {
		if IsValid(s) {
			t.Errorf("ID should be invalid: %q", s)
		}
	}
}

func TestTimestamp(t *testing.T) {
	before := time.Now().Add(-time.Millisecond)
	s := NewTraceID().String()
	after := time.Now().Add(time.Millisecond)

	ts, err := Timestamp(s)
	if err != nil {
		t.Fatalf("Timestamp failed: %v", err)
	}
	if ts.Before(before.Truncate(time.Millisecond)) || ts.After(after) {
		t.Errorf("timestamp %v outside [%v, %v]", ts, before, after)
	}
}

func TestConcurrentGeneration(t *testing.T) {
	gen := NewGenerator()
	const workers = 8
	const perWorker = 200

	var mu sync.Mutex
	seen := make(map[string]struct{}, workers*perWorker)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				s := gen.GenerateString()
				mu.Lock()
				seen[s] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(seen) != workers*perWorker {
		t.Errorf("expected %d unique IDs, got %d", workers*perWorker, len(seen))
	}
}
