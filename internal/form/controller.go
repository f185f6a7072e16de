package form

import (
	"context"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/zobayer1/bankzest/internal/models"
	"github.com/zobayer1/bankzest/internal/schema"
)

// Authenticator is the identity service the form hands validated data to.
type Authenticator interface {
	SignIn(ctx context.Context, email, password string) (*models.Identity, error)
	SignUp(ctx context.Context, params models.SignUpParams) (*models.Identity, error)
}

type State int

const (
	Idle State = iota
	Submitting
	LinkingRequired
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Submitting:
		return "submitting"
	case LinkingRequired:
		return "linking-required"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Status is the submission state plus its payload: Identity for LinkingRequired, Err for
// a Failed external call. A validation failure is Failed with a nil Err.
type Status struct {
	State    State
	Identity *models.Identity
	Err      *SubmitError
}

// Snapshot is a read-only copy of the controller for the rendering layer.
type Snapshot struct {
	Mode           schema.Mode
	Values         schema.Values
	Errors         schema.FieldErrors
	Status         Status
	SubmitDisabled bool
	Redirect       string
}

// Message returns the form-level error to display, if any.
func (s Snapshot) Message() string {
	if s.Status.Err != nil {
		return s.Status.Err.Display
	}
	return ""
}

type Outcome int

const (
	OutcomeIgnored Outcome = iota
	OutcomeInvalid
	OutcomeNavigate
	OutcomeLinking
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeIgnored:
		return "ignored"
	case OutcomeInvalid:
		return "invalid"
	case OutcomeNavigate:
		return "navigate"
	case OutcomeLinking:
		return "linking"
	case OutcomeFailed:
		return "failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

type Result struct {
	Outcome  Outcome
	Redirect string
	Identity *models.Identity
}

type Option func(*Controller)

func WithLogger(entry *log.Entry) Option {
	return func(c *Controller) { c.log = entry }
}

// WithTimeout bounds the external call. Zero leaves it unbounded.
func WithTimeout(d time.Duration) Option {
	return func(c *Controller) { c.timeout = d }
}

func WithHomePath(path string) Option {
	return func(c *Controller) { c.homePath = path }
}

// Controller owns the field values and submission state of one form instance. All
// mutation goes through its methods; observers only ever see snapshots.
type Controller struct {
	mode     schema.Mode
	schema   schema.Schema
	auth     Authenticator
	log      *log.Entry
	timeout  time.Duration
	homePath string

	mu        sync.Mutex
	values    schema.Values
	errors    schema.FieldErrors
	status    Status
	redirect  string
	attempt   uint64
	touched   time.Time
	observers []observer
	nextObs   int
}

type observer struct {
	id int
	fn func(Snapshot)
}

func NewController(mode schema.Mode, auth Authenticator, opts ...Option) *Controller {
	c := &Controller{
		mode:     mode,
		schema:   schema.Build(mode),
		auth:     auth,
		log:      log.NewEntry(log.StandardLogger()),
		homePath: "/",
		values:   make(schema.Values),
		touched:  time.Now(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.WithField("mode", mode.String())
	return c
}

func (c *Controller) Mode() schema.Mode { return c.mode }

func (c *Controller) Schema() schema.Schema { return c.schema }

// LastActive is the time of the last call that touched the controller.
func (c *Controller) LastActive() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.touched
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Subscribe registers fn to receive a snapshot after every transition. The returned
// function removes it.
func (c *Controller) Subscribe(fn func(Snapshot)) func() {
	c.mu.Lock()
	c.nextObs++
	id := c.nextObs
	c.observers = append(c.observers, observer{id: id, fn: fn})
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, o := range c.observers {
			if o.id == id {
				c.observers = append(c.observers[:i:i], c.observers[i+1:]...)
				return
			}
		}
	}
}

// SetField stores a raw value and clears the error previously reported for that field.
// An in-flight submission is unaffected; it works on the values captured at submit time.
func (c *Controller) SetField(name, value string) error {
	if !schema.IsField(name) {
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	c.mu.Lock()
	c.values[name] = value
	delete(c.errors, name)
	c.redirect = ""
	c.touched = time.Now()
	snap, obs := c.snapshotLocked(), c.observersLocked()
	c.mu.Unlock()

	notify(obs, snap)
	return nil
}

// Reset clears values and errors and returns to Idle. A submission still in flight is
// abandoned; its result is discarded when it arrives.
func (c *Controller) Reset() {
	c.mu.Lock()
	if c.status.State == Submitting {
		c.attempt++
	}
	c.resetLocked()
	snap, obs := c.snapshotLocked(), c.observersLocked()
	c.mu.Unlock()

	notify(obs, snap)
}

// Submit validates the current values and, when they pass, calls the authenticator.
// It never returns an error: external failures end in the Failed state.
func (c *Controller) Submit(ctx context.Context) Result {
	c.mu.Lock()
	c.touched = time.Now()
	if st := c.status.State; st != Idle && st != Failed {
		c.mu.Unlock()
		c.log.WithField("state", st.String()).Debug("Submit ignored")
		return Result{Outcome: OutcomeIgnored}
	}

	values := c.values.Clone()
	c.redirect = ""
	if errs := c.schema.Validate(values); errs != nil {
		// values stay so the user can correct them; only a completed external attempt clears them
		c.errors = errs
		c.status = Status{State: Failed}
		snap, obs := c.snapshotLocked(), c.observersLocked()
		c.mu.Unlock()

		c.log.WithField("fields", len(errs)).Debug("Form validation failed")
		notify(obs, snap)
		return Result{Outcome: OutcomeInvalid}
	}

	c.attempt++
	attempt := c.attempt
	c.errors = nil
	c.status = Status{State: Submitting}
	snap, obs := c.snapshotLocked(), c.observersLocked()
	c.mu.Unlock()

	notify(obs, snap)
	return c.run(ctx, attempt, values)
}

func (c *Controller) run(ctx context.Context, attempt uint64, values schema.Values) (res Result) {
	var (
		identity *models.Identity
		err      error
	)
	defer func() {
		if r := recover(); r != nil {
			identity, err = nil, fmt.Errorf("%w: %v", ErrPanic, r)
		}
		res = c.finish(attempt, identity, err)
	}()

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	if c.mode == schema.SignUp {
		identity, err = c.auth.SignUp(ctx, signUpParams(values))
	} else {
		identity, err = c.auth.SignIn(ctx, values[schema.Email], values[schema.Password])
	}
	return res
}

func (c *Controller) finish(attempt uint64, identity *models.Identity, err error) Result {
	if err == nil && identity == nil {
		err = ErrEmptyIdentity
	}

	c.mu.Lock()
	if attempt != c.attempt {
		c.mu.Unlock()
		c.log.WithField("attempt", attempt).Warn("Discarding result of an abandoned submission")
		return Result{Outcome: OutcomeIgnored}
	}

	c.values = make(schema.Values)
	c.touched = time.Now()
	var res Result
	switch {
	case err != nil:
		c.status = Status{State: Failed, Err: newSubmitError(c.mode, err)}
		res = Result{Outcome: OutcomeFailed}
	case c.mode == schema.SignUp:
		c.status = Status{State: LinkingRequired, Identity: identity}
		res = Result{Outcome: OutcomeLinking, Identity: identity}
	default:
		c.resetLocked()
		c.redirect = c.homePath
		res = Result{Outcome: OutcomeNavigate, Redirect: c.homePath, Identity: identity}
	}
	snap, obs := c.snapshotLocked(), c.observersLocked()
	c.mu.Unlock()

	if err != nil {
		c.log.WithError(err).Error("Authentication request failed")
	} else {
		c.log.WithField("user_id", identity.ID).Info("Authentication request succeeded")
	}
	notify(obs, snap)
	return res
}

func (c *Controller) resetLocked() {
	c.values = make(schema.Values)
	c.errors = nil
	c.status = Status{State: Idle}
	c.redirect = ""
}

func (c *Controller) snapshotLocked() Snapshot {
	return Snapshot{
		Mode:           c.mode,
		Values:         c.values.Clone(),
		Errors:         c.errors.Clone(),
		Status:         c.status,
		SubmitDisabled: c.status.State == Submitting,
		Redirect:       c.redirect,
	}
}

func (c *Controller) observersLocked() []func(Snapshot) {
	if len(c.observers) == 0 {
		return nil
	}
	out := make([]func(Snapshot), len(c.observers))
	for i, o := range c.observers {
		out[i] = o.fn
	}
	return out
}

func notify(obs []func(Snapshot), snap Snapshot) {
	for _, fn := range obs {
		fn(snap)
	}
}

func signUpParams(v schema.Values) models.SignUpParams {
	return models.SignUpParams{
		FirstName:   v[schema.FirstName],
		LastName:    v[schema.LastName],
		Address1:    v[schema.Address1],
		City:        v[schema.City],
		State:       v[schema.State],
		PostalCode:  v[schema.PostalCode],
		DateOfBirth: v[schema.DateOfBirth],
		SSN:         v[schema.SSN],
		Email:       v[schema.Email],
		Password:    v[schema.Password],
	}
}
