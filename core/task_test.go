package core

import (
	"context"
	"testing"
)

func TestTaskID_StringAndIsZero(t *testing.T) {
	var zero TaskID
	if !zero.IsZero() {
		t.Fatal("zero TaskID should report IsZero() == true")
	}

	id := GenerateTaskID()
	if id.IsZero() {
		t.Fatal("generated TaskID should not be zero")
	}
	if id.String() == "" {
		t.Fatal("TaskID.String() should not be empty")
	}
}

func TestCurrentWorker_AbsentByDefault(t *testing.T) {
	if w := currentWorker(context.Background()); w != nil {
		t.Fatalf("currentWorker(background) = %#v, want nil", w)
	}
}

func TestCurrentWorker_RoundTrip(t *testing.T) {
	w := &WorkerThread{name: "w-0"}
	ctx := withCurrentWorker(context.Background(), w)

	if got := currentWorker(ctx); got != w {
		t.Fatal("currentWorker(ctx) did not return the worker stored by withCurrentWorker")
	}
}

type isolatedString string

func (isolatedString) isolatedTaskArgument() {}

func TestCapture_PassesThroughIsolatedValues(t *testing.T) {
	if got := Capture(isolatedString("payload")); got != "payload" {
		t.Fatalf("Capture returned %q, want %q", got, "payload")
	}
}

func TestOwned_WrapsValue(t *testing.T) {
	o := NewOwned(42)
	if o.Value != 42 {
		t.Fatalf("Owned.Value = %d, want 42", o.Value)
	}
	// Owned[T] must itself satisfy Isolated so it can pass through Capture.
	_ = Capture(o)
}

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()
	if s != (Settings{}) {
		t.Fatalf("DefaultSettings() = %+v, want the zero Settings", s)
	}
}
