package core

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"
)

type testFrame struct {
	Kind EventKind       `json:"kind"`
	Data json.RawMessage `json:"data"`
}

func testEncode(ev Event) ([]byte, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, err
	}
	return json.Marshal(testFrame{Kind: ev.Kind(), Data: data})
}

func failingEncode(Event) ([]byte, error) {
	return nil, errors.New("boom")
}

// recordingSink collects frames; a failing sink rejects every delivery.
type recordingSink struct {
	mu     sync.Mutex
	frames [][]byte
	fail   error
}

func (s *recordingSink) Deliver(frame []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.frames = append(s.frames, frame)
	return nil
}

func (s *recordingSink) received() []testFrame {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]testFrame, 0, len(s.frames))
	for _, f := range s.frames {
		var tf testFrame
		_ = json.Unmarshal(f, &tf)
		out = append(out, tf)
	}
	return out
}

type panickingSink struct{}

func (panickingSink) Deliver([]byte) error { panic("send on closed channel") }

func mustFrame(t *testing.T, ch <-chan []byte, kind EventKind) testFrame {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case raw := <-ch:
			var f testFrame
			if err := json.Unmarshal(raw, &f); err != nil {
				t.Fatalf("decode frame: %v", err)
			}
			if f.Kind == kind {
				return f
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected frame kind %v not received", kind)
	return testFrame{}
}

func announcement(id, title string) AnnouncementPosted {
	return AnnouncementPosted{Announcement{ID: TextID(id), Title: title, Priority: PriorityHigh}}
}
