package notify

import (
	"bytes"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestRecorder(t *testing.T) {
	var r Recorder
	if _, ok := r.Last(); ok {
		t.Fatal("expected an empty recorder")
	}

	r.Notify(Success("Transação adicionada", "ok"))
	r.Notify(Failure("Erro ao excluir transação", "boom"))

	all := r.All()
	if len(all) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(all))
	}
	if all[0].Severity != Normal {
		t.Errorf("expected normal severity, got %q", all[0].Severity)
	}

	last, ok := r.Last()
	if !ok {
		t.Fatal("expected a last notification")
	}
	if last.Severity != Destructive || last.Description != "boom" {
		t.Errorf("unexpected last notification %+v", last)
	}

	r.Reset()
	if n := len(r.All()); n != 0 {
		t.Errorf("expected reset to drop notifications, got %d", n)
	}
}

func TestWriterNotifier(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriterNotifier(&buf)

	w.Notify(Success("Transação adicionada", "Sua transação foi registrada com sucesso."))
	w.Notify(Failure("Erro ao carregar transações", ""))

	want := "* Transação adicionada: Sua transação foi registrada com sucesso.\n! Erro ao carregar transações\n"
	if buf.String() != want {
		t.Errorf("expected %q, got %q", want, buf.String())
	}
}

func TestLogNotifier(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	n := NewLogNotifier(zap.New(core).Sugar())

	n.Notify(Success("ok", "fine"))
	n.Notify(Failure("bad", "broken"))

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 log entries, got %d", len(entries))
	}
	if entries[0].Level != zap.InfoLevel {
		t.Errorf("expected info for success, got %s", entries[0].Level)
	}
	if entries[1].Level != zap.WarnLevel {
		t.Errorf("expected warn for failure, got %s", entries[1].Level)
	}
	if got := entries[1].ContextMap()["description"]; got != "broken" {
		t.Errorf("expected description field, got %v", got)
	}
}

func TestMulti(t *testing.T) {
	var a, b Recorder
	Multi{&a, &b}.Notify(Success("x", "y"))
	if len(a.All()) != 1 || len(b.All()) != 1 {
		t.Errorf("expected both notifiers to receive one notification, got %d and %d", len(a.All()), len(b.All()))
	}
}
