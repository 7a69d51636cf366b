package conversation

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestSaveLoadTranscript(t *testing.T) {
	conv := New()
	fs := &fakeStreamer{deltas: []string{"Sum is 10.", "```json{\"sql\":\"SELECT SUM(x) FROM data\"}```"}}
	if _, err := NewRunner(conv, fs, Options{}).Send(context.Background(), "", "total?", nil); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "sessions", "s.json")
	if err := conv.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	back, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	msgs := back.Messages()
	if len(msgs) != 2 || msgs[0].Content != "total?" {
		t.Fatalf("messages: %+v", msgs)
	}
	last, ok := back.LastAssistant()
	if !ok || last.Directive == nil || last.Directive.Query != "SELECT SUM(x) FROM data" {
		t.Fatalf("directive lost: %+v", last)
	}
	if h := back.history(); len(h) != 2 || h[1].Role != "assistant" {
		t.Fatalf("history after load: %+v", h)
	}
}

func TestLoadMissingTranscript(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "none.json"))
	if err != nil || len(c.Messages()) != 0 {
		t.Fatalf("missing file: %v %v", c, err)
	}
}

func TestLoadRejectsUnknownVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.json")
	_ = os.WriteFile(path, []byte(`{"version":9,"messages":[]}`), 0o644)
	if _, err := Load(path); err == nil {
		t.Fatal("expected version error")
	}
	_ = os.WriteFile(path, []byte(`{`), 0o644)
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}
