package form

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/zobayer1/bankzest/internal/models"
	"github.com/zobayer1/bankzest/internal/schema"
)

type fakeAuth struct {
	mu         sync.Mutex
	signIns    int
	signUps    int
	lastEmail  string
	lastPass   string
	lastParams models.SignUpParams

	identity  *models.Identity
	err       error
	panicWith any
	entered   chan struct{}
	release   chan struct{}
	waitCtx   bool
}

func (f *fakeAuth) wait(ctx context.Context) error {
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.waitCtx {
		<-ctx.Done()
		return ctx.Err()
	}
	if f.release != nil {
		<-f.release
	}
	if f.panicWith != nil {
		panic(f.panicWith)
	}
	return nil
}

func (f *fakeAuth) SignIn(ctx context.Context, email, password string) (*models.Identity, error) {
	f.mu.Lock()
	f.signIns++
	f.lastEmail, f.lastPass = email, password
	f.mu.Unlock()
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	return f.identity, f.err
}

func (f *fakeAuth) SignUp(ctx context.Context, params models.SignUpParams) (*models.Identity, error) {
	f.mu.Lock()
	f.signUps++
	f.lastParams = params
	f.mu.Unlock()
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	return f.identity, f.err
}

func (f *fakeAuth) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.signIns + f.signUps
}

func newTestController(t *testing.T, mode schema.Mode, auth Authenticator, opts ...Option) (*Controller, *test.Hook) {
	t.Helper()
	logger, hook := test.NewNullLogger()
	opts = append([]Option{WithLogger(log.NewEntry(logger))}, opts...)
	return NewController(mode, auth, opts...), hook
}

func fill(t *testing.T, c *Controller, values schema.Values) {
	t.Helper()
	for k, v := range values {
		if err := c.SetField(k, v); err != nil {
			t.Fatalf("SetField(%s): %v", k, err)
		}
	}
}

func signUpValues() schema.Values {
	return schema.Values{
		schema.FirstName:   "Super",
		schema.LastName:    "Section",
		schema.Address1:    "1 Main St",
		schema.City:        "Springfield",
		schema.State:       "NY",
		schema.PostalCode:  "1101",
		schema.DateOfBirth: "1990-01-01",
		schema.SSN:         "1234",
		schema.Email:       "user@example.com",
		schema.Password:    "password1",
	}
}

func signInValues() schema.Values {
	return schema.Values{schema.Email: "user@example.com", schema.Password: "password1"}
}

func TestSubmitInvalidNeverCallsAuthenticator(t *testing.T) {
	auth := &fakeAuth{identity: &models.Identity{ID: "u1"}}
	c, _ := newTestController(t, schema.SignUp, auth)
	values := signUpValues()
	values[schema.State] = "N"
	values[schema.Password] = "short"
	fill(t, c, values)

	res := c.Submit(context.Background())
	if res.Outcome != OutcomeInvalid {
		t.Fatalf("expected invalid outcome, got %v", res.Outcome)
	}
	if auth.calls() != 0 {
		t.Fatalf("authenticator called %d times", auth.calls())
	}

	snap := c.Snapshot()
	if snap.Status.State != Failed || snap.Status.Err != nil {
		t.Fatalf("unexpected status %+v", snap.Status)
	}
	want := schema.FieldErrors{
		schema.State:    "String must contain at least 2 character(s)",
		schema.Password: "Password must be at least 8 characters long.",
	}
	if diff := cmp.Diff(want, snap.Errors); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(values, snap.Values); diff != "" {
		t.Fatalf("values should survive a validation failure (-want +got):\n%s", diff)
	}
}

func TestSubmitWhileSubmittingIsNoop(t *testing.T) {
	auth := &fakeAuth{
		identity: &models.Identity{ID: "u1"},
		entered:  make(chan struct{}, 1),
		release:  make(chan struct{}),
	}
	c, _ := newTestController(t, schema.SignIn, auth)
	fill(t, c, signInValues())

	done := make(chan Result, 1)
	go func() { done <- c.Submit(context.Background()) }()
	<-auth.entered

	if snap := c.Snapshot(); snap.Status.State != Submitting || !snap.SubmitDisabled {
		t.Fatalf("expected submitting with disabled submit, got %+v", snap)
	}
	if res := c.Submit(context.Background()); res.Outcome != OutcomeIgnored {
		t.Fatalf("second submit: expected ignored, got %v", res.Outcome)
	}
	if err := c.SetField(schema.Email, "other@example.com"); err != nil {
		t.Fatalf("SetField during submission: %v", err)
	}

	close(auth.release)
	res := <-done
	if res.Outcome != OutcomeNavigate {
		t.Fatalf("expected navigate, got %v", res.Outcome)
	}
	if auth.calls() != 1 {
		t.Fatalf("expected exactly one call, got %d", auth.calls())
	}
	if auth.lastEmail != "user@example.com" {
		t.Fatalf("in-flight attempt should use its own snapshot, got %q", auth.lastEmail)
	}
}

func TestSignUpSuccessRequiresLinking(t *testing.T) {
	auth := &fakeAuth{identity: &models.Identity{ID: "u1"}}
	c, _ := newTestController(t, schema.SignUp, auth)
	values := signUpValues()
	fill(t, c, values)

	res := c.Submit(context.Background())
	if res.Outcome != OutcomeLinking || res.Identity.ID != "u1" {
		t.Fatalf("unexpected result %+v", res)
	}
	snap := c.Snapshot()
	if snap.Status.State != LinkingRequired || snap.Status.Identity.ID != "u1" {
		t.Fatalf("unexpected status %+v", snap.Status)
	}
	if len(snap.Values) != 0 {
		t.Fatalf("values not cleared: %v", snap.Values)
	}
	want := models.SignUpParams{
		FirstName: "Super", LastName: "Section", Address1: "1 Main St", City: "Springfield",
		State: "NY", PostalCode: "1101", DateOfBirth: "1990-01-01", SSN: "1234",
		Email: "user@example.com", Password: "password1",
	}
	if diff := cmp.Diff(want, auth.lastParams); diff != "" {
		t.Fatalf("sign-up params (-want +got):\n%s", diff)
	}
	if res := c.Submit(context.Background()); res.Outcome != OutcomeIgnored {
		t.Fatalf("submit from linking-required should be ignored, got %v", res.Outcome)
	}
}

func TestSignInSuccessNavigates(t *testing.T) {
	auth := &fakeAuth{identity: &models.Identity{ID: "u2"}}
	c, _ := newTestController(t, schema.SignIn, auth, WithHomePath("/dashboard"))
	fill(t, c, signInValues())
	if err := c.SetField(schema.FirstName, "ignored"); err != nil {
		t.Fatal(err)
	}

	res := c.Submit(context.Background())
	if res.Outcome != OutcomeNavigate || res.Redirect != "/dashboard" {
		t.Fatalf("unexpected result %+v", res)
	}
	if auth.signIns != 1 || auth.signUps != 0 {
		t.Fatalf("unexpected calls: signIn=%d signUp=%d", auth.signIns, auth.signUps)
	}
	if auth.lastEmail != "user@example.com" || auth.lastPass != "password1" {
		t.Fatalf("unexpected credentials %q/%q", auth.lastEmail, auth.lastPass)
	}
	snap := c.Snapshot()
	if snap.Status.State != Idle || snap.Redirect != "/dashboard" || len(snap.Values) != 0 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}

	if err := c.SetField(schema.Email, "x@example.com"); err != nil {
		t.Fatal(err)
	}
	if c.Snapshot().Redirect != "" {
		t.Fatal("redirect signal should not survive further edits")
	}
}

func TestSignInFailure(t *testing.T) {
	cause := errors.New("invalid credentials")
	auth := &fakeAuth{err: cause}
	c, hook := newTestController(t, schema.SignIn, auth)
	fill(t, c, signInValues())

	res := c.Submit(context.Background())
	if res.Outcome != OutcomeFailed || res.Redirect != "" {
		t.Fatalf("unexpected result %+v", res)
	}
	snap := c.Snapshot()
	if snap.Status.State != Failed || snap.Redirect != "" || len(snap.Values) != 0 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if !errors.Is(snap.Status.Err, cause) {
		t.Fatalf("cause not wrapped: %v", snap.Status.Err)
	}
	if snap.Message() != "Unable to sign in. Please try again." {
		t.Fatalf("unexpected message %q", snap.Message())
	}
	entry := hook.LastEntry()
	if entry == nil || entry.Level != log.ErrorLevel || entry.Data[log.ErrorKey] != cause {
		t.Fatalf("failure not logged: %+v", entry)
	}
}

func TestPanicBecomesFailure(t *testing.T) {
	auth := &fakeAuth{panicWith: "boom"}
	c, _ := newTestController(t, schema.SignUp, auth)
	fill(t, c, signUpValues())

	res := c.Submit(context.Background())
	if res.Outcome != OutcomeFailed {
		t.Fatalf("expected failed, got %v", res.Outcome)
	}
	snap := c.Snapshot()
	if !errors.Is(snap.Status.Err, ErrPanic) || len(snap.Values) != 0 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if snap.Message() != "Registration failed. Please try again." {
		t.Fatalf("unexpected message %q", snap.Message())
	}
}

func TestNilIdentityIsFailure(t *testing.T) {
	c, _ := newTestController(t, schema.SignIn, &fakeAuth{})
	fill(t, c, signInValues())

	if res := c.Submit(context.Background()); res.Outcome != OutcomeFailed {
		t.Fatalf("expected failed, got %v", res.Outcome)
	}
	if err := c.Snapshot().Status.Err; !errors.Is(err, ErrEmptyIdentity) {
		t.Fatalf("expected ErrEmptyIdentity, got %v", err)
	}
}

func TestRetryAfterFailure(t *testing.T) {
	auth := &fakeAuth{err: errors.New("network down")}
	c, _ := newTestController(t, schema.SignIn, auth)
	fill(t, c, signInValues())
	c.Submit(context.Background())

	auth.err = nil
	auth.identity = &models.Identity{ID: "u3"}
	fill(t, c, signInValues())
	if res := c.Submit(context.Background()); res.Outcome != OutcomeNavigate {
		t.Fatalf("retry: expected navigate, got %v", res.Outcome)
	}
	if auth.calls() != 2 {
		t.Fatalf("expected two calls, got %d", auth.calls())
	}
}

func TestSetFieldClearsOnlyItsError(t *testing.T) {
	c, _ := newTestController(t, schema.SignUp, &fakeAuth{})
	c.Submit(context.Background())
	if n := len(c.Snapshot().Errors); n != len(schema.Fields()) {
		t.Fatalf("expected %d errors, got %d", len(schema.Fields()), n)
	}

	if err := c.SetField(schema.City, "x"); err != nil {
		t.Fatal(err)
	}
	errs := c.Snapshot().Errors
	if _, ok := errs[schema.City]; ok {
		t.Fatal("city error not cleared")
	}
	if errs[schema.State] != "Required" {
		t.Fatalf("state error should persist, got %q", errs[schema.State])
	}
}

func TestSetFieldUnknown(t *testing.T) {
	c, _ := newTestController(t, schema.SignIn, &fakeAuth{})
	if err := c.SetField("nickname", "x"); !errors.Is(err, ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
}

func TestResetDiscardsInFlightResult(t *testing.T) {
	auth := &fakeAuth{
		identity: &models.Identity{ID: "u1"},
		entered:  make(chan struct{}, 1),
		release:  make(chan struct{}),
	}
	c, _ := newTestController(t, schema.SignUp, auth)
	fill(t, c, signUpValues())

	done := make(chan Result, 1)
	go func() { done <- c.Submit(context.Background()) }()
	<-auth.entered

	c.Reset()
	if err := c.SetField(schema.Email, "next@example.com"); err != nil {
		t.Fatal(err)
	}
	close(auth.release)

	if res := <-done; res.Outcome != OutcomeIgnored {
		t.Fatalf("expected abandoned attempt to be ignored, got %v", res.Outcome)
	}
	snap := c.Snapshot()
	if snap.Status.State != Idle || snap.Values[schema.Email] != "next@example.com" {
		t.Fatalf("late result leaked into state: %+v", snap)
	}
}

func TestResetReturnsToIdle(t *testing.T) {
	c, _ := newTestController(t, schema.SignUp, &fakeAuth{})
	fill(t, c, schema.Values{schema.Email: "bad"})
	c.Submit(context.Background())

	c.Reset()
	snap := c.Snapshot()
	if snap.Status.State != Idle || len(snap.Values) != 0 || snap.Errors != nil {
		t.Fatalf("unexpected snapshot after reset %+v", snap)
	}
}

func TestTimeout(t *testing.T) {
	auth := &fakeAuth{waitCtx: true}
	c, _ := newTestController(t, schema.SignIn, auth, WithTimeout(10*time.Millisecond))
	fill(t, c, signInValues())

	if res := c.Submit(context.Background()); res.Outcome != OutcomeFailed {
		t.Fatalf("expected failed, got %v", res.Outcome)
	}
	if err := c.Snapshot().Status.Err; !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestObservers(t *testing.T) {
	auth := &fakeAuth{identity: &models.Identity{ID: "u1"}}
	c, _ := newTestController(t, schema.SignUp, auth)
	fill(t, c, signUpValues())

	var states []State
	cancel := c.Subscribe(func(s Snapshot) { states = append(states, s.Status.State) })
	c.Submit(context.Background())
	cancel()
	c.Reset()

	if diff := cmp.Diff([]State{Submitting, LinkingRequired}, states); diff != "" {
		t.Fatalf("observed states (-want +got):\n%s", diff)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	c, _ := newTestController(t, schema.SignIn, &fakeAuth{})
	fill(t, c, signInValues())
	snap := c.Snapshot()
	snap.Values[schema.Email] = "changed"
	if c.Snapshot().Values[schema.Email] != "user@example.com" {
		t.Fatal("snapshot mutation leaked into controller")
	}
}

func TestOutcomeString(t *testing.T) {
	cases := map[Outcome]string{
		OutcomeIgnored:  "ignored",
		OutcomeInvalid:  "invalid",
		OutcomeNavigate: "navigate",
		OutcomeLinking:  "linking",
		OutcomeFailed:   "failed",
		Outcome(42):     "outcome(42)",
	}
	for o, want := range cases {
		if got := o.String(); got != want {
			t.Errorf("Outcome(%d).String() = %q, want %q", int(o), got, want)
		}
	}
}
