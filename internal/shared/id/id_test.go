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

	id := gen.GenerateString()

	if len(id) != 26 {
		t.Errorf("ULID should be 26 characters, got %d", len(id))
	}
}

func TestPrefixedIDs(t *testing.T) {
	isl := NewIslandID()
	if !strings.HasPrefix(isl.String(), IslandPrefix+"_") {
		t.Errorf("island ID missing prefix: %s", isl)
	}

	dig := NewDigestID()
	if !strings.HasPrefix(dig.String(), DigestPrefix+"_") {
		t.Errorf("digest ID missing prefix: %s", dig)
	}

	act := NewActionID()
	if !strings.HasPrefix(act.String(), ActionPrefix+"_") {
		t.Errorf("action ID missing prefix: %s", act)
	}
}

func TestSortability(t *testing.T) {
	gen := NewGenerator()

	first := gen.GenerateString()
	time.Sleep(2 * time.Millisecond)
	second := gen.GenerateString()

	if !(first < second) {
		t.Errorf("ULIDs should sort by creation time: %s >= %s", first, second)
	}
}

func TestTimestampRoundTrip(t *testing.T) {
	gen := NewGenerator()
	before := time.Now().Add(-time.Second)

	raw := gen.GenerateString()
	ts, err := Timestamp(raw)
	if err != nil {
		t.Fatalf("Timestamp failed: %v", err)
	}

	if ts.Before(before) || ts.After(time.Now().Add(time.Second)) {
		t.Errorf("embedded timestamp out of range: %v", ts)
	}
}

func TestIsValid(t *testing.T) {
	if IsValid("not-a-ulid") {
		t.Error("expected invalid")
	}
	if !IsValid(NewGenerator().GenerateString()) {
		t.Error("expected valid")
	}
}

func TestConcurrentGeneration(t *testing.T) {
	gen := NewGenerator()
	const n = 50

	var wg sync.WaitGroup
	seen := sync.Map{}

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := gen.GenerateString()
			if _, dup := seen.LoadOrStore(id, true); dup {
				t.Errorf("duplicate ULID under concurrency: %s", id)
			}
		}()
	}
	wg.Wait()
}
