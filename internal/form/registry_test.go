package form

import (
	"context"
	"testing"
	"time"

	"github.com/zobayer1/bankzest/internal/models"
	"github.com/zobayer1/bankzest/internal/schema"
)

func TestRegistryGetReusesController(t *testing.T) {
	r := NewRegistry(&fakeAuth{}, time.Minute)
	a := r.Get("form-1", schema.SignIn)
	if b := r.Get("form-1", schema.SignIn); a != b {
		t.Fatal("expected the same controller for the same id and mode")
	}
	if c := r.Get("form-1", schema.SignUp); c == a || c.Mode() != schema.SignUp {
		t.Fatal("modes must not share a controller")
	}
	if r.Len() != 2 {
		t.Fatalf("expected 2 forms, got %d", r.Len())
	}

	r.Drop("form-1")
	if r.Len() != 0 {
		t.Fatalf("expected empty registry, got %d", r.Len())
	}
}

func TestRegistrySweep(t *testing.T) {
	r := NewRegistry(&fakeAuth{}, time.Minute)
	r.Get("old", schema.SignIn)
	r.Get("fresh", schema.SignIn)

	if n := r.Sweep(time.Now()); n != 0 {
		t.Fatalf("nothing should be idle yet, evicted %d", n)
	}
	if n := r.Sweep(time.Now().Add(2 * time.Minute)); n != 2 {
		t.Fatalf("expected 2 evictions, got %d", n)
	}
}

func TestRegistrySweepKeepsInFlight(t *testing.T) {
	auth := &fakeAuth{
		identity: &models.Identity{ID: "u1"},
		entered:  make(chan struct{}, 1),
		release:  make(chan struct{}),
	}
	r := NewRegistry(auth, time.Minute)
	c := r.Get("busy", schema.SignIn)
	fill(t, c, signInValues())

	done := make(chan struct{})
	go func() {
		c.Submit(context.Background())
		close(done)
	}()
	<-auth.entered

	if n := r.Sweep(time.Now().Add(time.Hour)); n != 0 {
		t.Fatalf("in-flight form evicted")
	}
	close(auth.release)
	<-done
}

func TestRegistryRunStops(t *testing.T) {
	r := NewRegistry(&fakeAuth{}, time.Nanosecond)
	r.Get("x", schema.SignIn)

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		r.Run(ctx, time.Millisecond)
		close(stopped)
	}()

	deadline := time.After(time.Second)
	for r.Len() != 0 {
		select {
		case <-deadline:
			t.Fatal("sweeper never evicted the idle form")
		case <-time.After(time.Millisecond):
		}
	}
	cancel()
	<-stopped
}
