// Package loginflow drives the client side of a PharmHub login.
//
// One Orchestrator owns one login attempt and walks it through
//
//	Idle -> Submitting -> Success | NeedsStepUp | NeedsConflictResolution | Failed
//
// Step-up codes and "log out other devices" both loop back into the same
// submission, so every server answer is classified in exactly one place.
// A Cancel is effective immediately: the attempt's generation moves on and
// any response still in flight is discarded when it lands.
package loginflow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/seroft/pharmhub-auth/pkg/authsdk"
	"github.com/seroft/pharmhub-auth/pkg/deviceid"
)

// Request timeout bounds.
const (
	DefaultTimeout = 10 * time.Second
	MinTimeout     = 8 * time.Second
	MaxTimeout     = 15 * time.Second
)

// ClampTimeout keeps d within [MinTimeout, MaxTimeout]. Zero or negative
// selects DefaultTimeout.
func ClampTimeout(d time.Duration) time.Duration {
	switch {
	case d <= 0:
		return DefaultTimeout
	case d < MinTimeout:
		return MinTimeout
	case d > MaxTimeout:
		return MaxTimeout
	}
	return d
}

// LoginAPI sends one login request. *authsdk.SDKClient implements it.
type LoginAPI interface {
	Login(ctx context.Context, req authsdk.LoginRequest) (*authsdk.LoginResponse, error)
}

// DeviceSource identifies the device. *deviceid.Resolver implements it.
type DeviceSource interface {
	Resolve(ctx context.Context, userAgent string) (deviceid.Identity, error)
}

// SessionTerminator ends a user's other sessions. *TerminationService
// implements it.
type SessionTerminator interface {
	TerminateOtherSessions(ctx context.Context, userID, bearer string) TerminationResult
}

type Orchestrator struct {
	api        LoginAPI
	devices    DeviceSource
	terminator SessionTerminator

	log       *slog.Logger
	timeout   time.Duration
	userAgent string
	observer  func(Snapshot)

	mu     sync.Mutex
	state  State
	gen    uint64
	cancel context.CancelFunc

	creds           *Credentials
	stepUp          *stepUpAnswer
	previousSession string

	status          authsdk.LoginStatus
	token           string
	sessionID       string
	challengeID     string
	userID          string
	resolutionToken string
	failure         *Failure
	termination     *TerminationResult
}

type stepUpAnswer struct {
	challengeID string
	code        string
}

type Option func(*Orchestrator)

// WithTimeout sets the per-request timeout, clamped by ClampTimeout.
func WithTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.timeout = ClampTimeout(d) }
}

// WithObserver is called with a fresh snapshot after every state change.
// It runs on the goroutine that caused the change and must not call back
// into the orchestrator synchronously.
func WithObserver(fn func(Snapshot)) Option {
	return func(o *Orchestrator) { o.observer = fn }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.log = l }
}

// WithUserAgent is the user agent described in device metadata.
func WithUserAgent(ua string) Option {
	return func(o *Orchestrator) { o.userAgent = ua }
}

// WithPreviousSession names the session this client held before, sent as
// X-Session-ID so the server retires it rather than counting it.
func WithPreviousSession(sessionID string) Option {
	return func(o *Orchestrator) { o.previousSession = sessionID }
}

func New(api LoginAPI, devices DeviceSource, terminator SessionTerminator, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		api:        api,
		devices:    devices,
		terminator: terminator,
		log:        slog.Default(),
		timeout:    DefaultTimeout,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Snapshot returns the current view.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshotLocked()
}

// Submit starts a login with c. Allowed from Idle, Success and Failed.
// Missing credentials return a *ValidationError without touching state.
func (o *Orchestrator) Submit(ctx context.Context, c Credentials) (Snapshot, error) {
	o.mu.Lock()
	switch o.state {
	case Submitting:
		defer o.mu.Unlock()
		return o.snapshotLocked(), ErrSubmitInFlight
	case NeedsStepUp, NeedsConflictResolution:
		defer o.mu.Unlock()
		return o.snapshotLocked(), ErrInvalidTransition
	}

	c.EmailAddress = strings.TrimSpace(c.EmailAddress)
	if verr := validateCredentials(c); verr != nil {
		defer o.mu.Unlock()
		return o.snapshotLocked(), verr
	}

	o.clearOutcomeLocked()
	o.termination = nil
	o.creds = &c
	o.stepUp = nil
	ex := o.beginLocked(ctx)
	o.mu.Unlock()

	return o.exchange(ex)
}

// SubmitStepUp answers the pending challenge with code. A wrong code comes
// back as OTP_REQUIRED and the flow stays in NeedsStepUp.
func (o *Orchestrator) SubmitStepUp(ctx context.Context, code string) (Snapshot, error) {
	o.mu.Lock()
	if o.state != NeedsStepUp {
		defer o.mu.Unlock()
		return o.snapshotLocked(), ErrInvalidTransition
	}

	code = strings.TrimSpace(code)
	if code == "" {
		defer o.mu.Unlock()
		return o.snapshotLocked(), &ValidationError{Fields: map[string]string{"code": "required"}}
	}

	o.stepUp = &stepUpAnswer{challengeID: o.challengeID, code: code}
	ex := o.beginLocked(ctx)
	o.mu.Unlock()

	return o.exchange(ex)
}

// ConfirmTerminateOthers ends the user's other sessions and, on success,
// re-sends the original submission once. On failure the flow returns to
// NeedsConflictResolution with the result in Snapshot.Termination.
func (o *Orchestrator) ConfirmTerminateOthers(ctx context.Context) (Snapshot, error) {
	o.mu.Lock()
	if o.state != NeedsConflictResolution {
		defer o.mu.Unlock()
		return o.snapshotLocked(), ErrInvalidTransition
	}
	if o.terminator == nil {
		defer o.mu.Unlock()
		return o.snapshotLocked(), fmt.Errorf("%w: no session terminator configured", ErrInvalidTransition)
	}

	userID, bearer := o.userID, o.resolutionToken
	o.termination = nil
	ex := o.beginLocked(ctx)
	snap := o.snapshotLocked()
	o.mu.Unlock()
	o.notify(snap)

	res := o.terminator.TerminateOtherSessions(ex.ctx, userID, bearer)
	ex.cancel()

	o.mu.Lock()
	if ex.gen != o.gen {
		defer o.mu.Unlock()
		return o.snapshotLocked(), ErrSuperseded
	}
	o.termination = &res
	o.cancel = nil

	if !res.Success {
		o.setStateLocked(NeedsConflictResolution)
		snap := o.snapshotLocked()
		o.mu.Unlock()
		o.notify(snap)
		return snap, ErrTerminationFailed
	}

	o.log.Info("other sessions terminated", "user_id", userID, "terminated", res.Terminated)
	o.resolutionToken = ""
	o.stepUp = nil
	next := o.beginLocked(ctx)
	o.mu.Unlock()

	return o.exchange(next)
}

// Retry re-sends the last request after a failure.
func (o *Orchestrator) Retry(ctx context.Context) (Snapshot, error) {
	o.mu.Lock()
	if o.state != Failed || o.creds == nil {
		defer o.mu.Unlock()
		return o.snapshotLocked(), ErrInvalidTransition
	}
	ex := o.beginLocked(ctx)
	o.mu.Unlock()

	return o.exchange(ex)
}

// Cancel abandons the attempt and returns to Idle. Credentials, challenge
// and conflict data are dropped and any response still in flight will be
// ignored.
func (o *Orchestrator) Cancel() error {
	o.mu.Lock()
	switch o.state {
	case Submitting, NeedsStepUp, NeedsConflictResolution, Failed:
	default:
		o.mu.Unlock()
		return ErrInvalidTransition
	}

	o.gen++
	if o.cancel != nil {
		o.cancel()
		o.cancel = nil
	}
	o.creds = nil
	o.stepUp = nil
	o.clearOutcomeLocked()
	o.termination = nil
	o.setStateLocked(Idle)
	snap := o.snapshotLocked()
	o.mu.Unlock()

	o.notify(snap)
	return nil
}

// exchangeState is one in-flight round trip.
type exchangeState struct {
	gen    uint64
	ctx    context.Context
	cancel context.CancelFunc

	creds    Credentials
	stepUp   *stepUpAnswer
	previous string
}

// beginLocked moves to Submitting under a new generation.
func (o *Orchestrator) beginLocked(parent context.Context) exchangeState {
	o.gen++
	ctx, cancel := context.WithTimeout(parent, o.timeout)
	o.cancel = cancel
	o.failure = nil
	o.setStateLocked(Submitting)

	ex := exchangeState{
		gen:      o.gen,
		ctx:      ctx,
		cancel:   cancel,
		previous: o.previousSession,
	}
	if o.creds != nil {
		ex.creds = *o.creds
	}
	if o.stepUp != nil {
		s := *o.stepUp
		ex.stepUp = &s
	}
	return ex
}

// exchange performs the round trip outside the lock and applies the answer
// if the generation still matches.
func (o *Orchestrator) exchange(ex exchangeState) (Snapshot, error) {
	o.notify(o.Snapshot())
	defer ex.cancel()

	ident, err := o.devices.Resolve(ex.ctx, o.userAgent)
	if err != nil {
		o.log.Error("device identity unavailable", "err", err)
		return o.apply(ex.gen, nil, newFailure(KindServer, err))
	}

	req := authsdk.LoginRequest{
		EmailAddress:      ex.creds.EmailAddress,
		Password:          ex.creds.Password,
		DeviceID:          ident.DeviceID,
		DeviceMetadata:    ident.Metadata(o.userAgent),
		PreviousSessionID: ex.previous,
	}
	if ex.stepUp != nil {
		req.ChallengeID = ex.stepUp.challengeID
		req.Code = ex.stepUp.code
	}

	resp, err := o.api.Login(ex.ctx, req)
	if err != nil {
		return o.apply(ex.gen, nil, classify(err))
	}
	return o.apply(ex.gen, resp, nil)
}

func (o *Orchestrator) apply(gen uint64, resp *authsdk.LoginResponse, fail *Failure) (Snapshot, error) {
	o.mu.Lock()
	if gen != o.gen {
		defer o.mu.Unlock()
		o.log.Debug("discarding stale login response", "gen", gen, "current", o.gen)
		return o.snapshotLocked(), ErrSuperseded
	}
	o.cancel = nil

	if fail == nil && resp != nil {
		fail = o.classifyLocked(resp)
	}
	if fail != nil {
		o.clearOutcomeLocked()
		o.failure = fail
		o.setStateLocked(Failed)
		o.log.Warn("login attempt failed", "kind", fail.Kind.String(), "err", fail.Err)
	}

	snap := o.snapshotLocked()
	o.mu.Unlock()
	o.notify(snap)
	return snap, nil
}

// classifyLocked is the single place a server answer becomes a state.
func (o *Orchestrator) classifyLocked(resp *authsdk.LoginResponse) *Failure {
	if err := resp.Check(); err != nil {
		return newFailure(KindServer, err)
	}

	o.clearOutcomeLocked()
	o.status = resp.Status

	switch {
	case resp.Status == authsdk.StatusOK:
		o.token = resp.Token
		o.sessionID = resp.SessionID
		o.userID = resp.UserID
		o.previousSession = resp.SessionID
		o.creds = nil
		o.stepUp = nil
		o.setStateLocked(Success)

	case resp.Status.NeedsStepUp():
		o.challengeID = resp.ChallengeID
		o.stepUp = nil
		o.setStateLocked(NeedsStepUp)

	case resp.Status == authsdk.StatusTooManyDevices:
		o.userID = resp.UserID
		o.resolutionToken = resp.ResolutionToken
		o.stepUp = nil
		o.setStateLocked(NeedsConflictResolution)
	}
	return nil
}

func (o *Orchestrator) clearOutcomeLocked() {
	o.status = ""
	o.token = ""
	o.sessionID = ""
	o.challengeID = ""
	o.userID = ""
	o.resolutionToken = ""
	o.failure = nil
}

func (o *Orchestrator) setStateLocked(s State) {
	if o.state != s {
		o.log.Debug("login state", "from", o.state.String(), "to", s.String(), "gen", o.gen)
	}
	o.state = s
}

func (o *Orchestrator) snapshotLocked() Snapshot {
	snap := Snapshot{
		State:       o.state,
		Generation:  o.gen,
		Status:      o.status,
		Token:       o.token,
		SessionID:   o.sessionID,
		ChallengeID: o.challengeID,
		UserID:      o.userID,
		Failure:     o.failure,
	}
	if o.status != "" {
		d, _ := authsdk.Details(o.status)
		snap.Message, snap.Explanation = d.Message, d.Explanation
	}
	if o.failure != nil {
		snap.Message, snap.Explanation = o.failure.Details.Message, o.failure.Details.Explanation
	}
	if o.termination != nil {
		t := *o.termination
		snap.Termination = &t
	}
	return snap
}

func (o *Orchestrator) notify(s Snapshot) {
	if o.observer != nil {
		o.observer(s)
	}
}

func validateCredentials(c Credentials) *ValidationError {
	fields := map[string]string{}
	if c.EmailAddress == "" {
		fields["emailAddress"] = "required"
	}
	if c.Password == "" {
		fields["password"] = "required"
	}
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}
