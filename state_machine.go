package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// NewInvalidTransitionError is returned when a requested state change is not allowed.
func NewInvalidTransitionError(from, to AccountState) *goerrors.Error {
	return goerrors.New("invalid account state transition", goerrors.CategoryConflict).
		WithTextCode(TextCodeInvalidTransition).
		WithCode(goerrors.CodeConflict).
		WithMetadata(map[string]any{
			"from": from,
			"to":   to,
		})
}

// TransitionMetadata captures extra context for a transition.
type TransitionMetadata struct {
	Reason   string
	Metadata map[string]any
}

// TransitionContext is passed into hooks for additional processing.
type TransitionContext struct {
	Actor   ActorRef
	Account *Account
	From    AccountState
	To      AccountState
	Meta    TransitionMetadata
}

// TransitionHook is executed before or after a transition.
type TransitionHook func(ctx context.Context, tc TransitionContext) error

// TransitionApply persists a transition. It receives the account with
// the transition already applied in memory.
type TransitionApply func(ctx context.Context, account *Account) error

// TransitionOption customizes a single transition.
type TransitionOption func(*transitionOptions)

// AccountStateMachine guards the account lifecycle graph.
type AccountStateMachine interface {
	Transition(ctx context.Context, actor ActorRef, account *Account, target AccountState, apply TransitionApply, opts ...TransitionOption) (*Account, error)
	CanTransition(from, to AccountState) bool
	CurrentState(account *Account) AccountState
}

// StateMachineOption customizes state machine construction.
type StateMachineOption func(*accountStateMachine)

// WithStateMachineClock injects a custom clock (useful for tests).
func WithStateMachineClock(clock Clock) StateMachineOption {
	return func(sm *accountStateMachine) {
		if clock != nil {
			sm.now = clock
		}
	}
}

// WithStateMachineActivitySink sets the ActivitySink used to publish lifecycle events.
func WithStateMachineActivitySink(sink ActivitySink) StateMachineOption {
	return func(sm *accountStateMachine) {
		sm.activitySink = normalizeActivitySink(sink)
	}
}

// WithStateMachineLogger overrides the logger used for sink failures.
func WithStateMachineLogger(logger Logger) StateMachineOption {
	return func(sm *accountStateMachine) {
		if logger != nil {
			sm.logger = logger
		}
	}
}

// WithTransitionReason sets the human-readable reason for the transition.
func WithTransitionReason(reason string) TransitionOption {
	return func(opts *transitionOptions) {
		opts.metadata.Reason = reason
	}
}

// WithTransitionMetadata merges metadata into the transition context.
func WithTransitionMetadata(metadata map[string]any) TransitionOption {
	return func(opts *transitionOptions) {
		if len(metadata) == 0 {
			return
		}
		if opts.metadata.Metadata == nil {
			opts.metadata.Metadata = make(map[string]any, len(metadata))
		}
		for k, v := range metadata {
			opts.metadata.Metadata[k] = v
		}
	}
}

// WithBeforeTransitionHook adds a hook executed before apply.
func WithBeforeTransitionHook(h TransitionHook) TransitionOption {
	return func(opts *transitionOptions) {
		if h != nil {
			opts.beforeHooks = append(opts.beforeHooks, h)
		}
	}
}

// WithAfterTransitionHook adds a hook executed after apply succeeds.
func WithAfterTransitionHook(h TransitionHook) TransitionOption {
	return func(opts *transitionOptions) {
		if h != nil {
			opts.afterHooks = append(opts.afterHooks, h)
		}
	}
}

// NewAccountStateMachine returns the default lifecycle graph:
//
//	unconfirmed -> active       (ConfirmEmail)
//	unconfirmed -> deactivated  (Deactivate)
//	active      -> deactivated  (Deactivate)
//	deactivated -> active       (Reactivate)
func NewAccountStateMachine(opts ...StateMachineOption) AccountStateMachine {
	sm := &accountStateMachine{
		transitions: map[AccountState]map[AccountState]struct{}{
			AccountStateUnconfirmed: {
				AccountStateActive:      {},
				AccountStateDeactivated: {},
			},
			AccountStateActive: {
				AccountStateDeactivated: {},
			},
			AccountStateDeactivated: {
				AccountStateActive: {},
			},
		},
		now:          time.Now,
		activitySink: noopActivitySink{},
		logger:       defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(sm)
		}
	}

	return sm
}

type accountStateMachine struct {
	transitions  map[AccountState]map[AccountState]struct{}
	now          Clock
	activitySink ActivitySink
	logger       Logger
}

type transitionOptions struct {
	metadata    TransitionMetadata
	beforeHooks []TransitionHook
	afterHooks  []TransitionHook
}

// Transition validates the edge, runs apply and records the change. On
// apply failure the in memory account is restored.
func (sm *accountStateMachine) Transition(ctx context.Context, actor ActorRef, account *Account, target AccountState, apply TransitionApply, opts ...TransitionOption) (*Account, error) {
	if account == nil {
		return nil, NewInvalidTransitionError("", target)
	}

	from := account.State()
	if !sm.CanTransition(from, target) {
		return nil, NewInvalidTransitionError(from, target)
	}

	options := &transitionOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(options)
		}
	}

	tc := TransitionContext{
		Actor:   actor,
		Account: account,
		From:    from,
		To:      target,
		Meta:    options.metadata,
	}

	if err := runHooks(ctx, options.beforeHooks, tc); err != nil {
		return nil, err
	}

	snapshot := *account
	applyState(account, target, sm.now())

	if apply != nil {
		if err := apply(ctx, account); err != nil {
			*account = snapshot
			return nil, err
		}
	}

	if err := runHooks(ctx, options.afterHooks, tc); err != nil {
		return nil, err
	}

	activityRecorder{sink: sm.activitySink, logger: sm.logger, now: sm.now}.record(ctx, ActivityEvent{
		EventType: ActivityEventAccountStateChanged,
		Actor:     actor,
		AccountID: account.ID.String(),
		FromState: from,
		ToState:   target,
		Metadata:  transitionMetadata(options.metadata),
	})

	return account, nil
}

func (sm *accountStateMachine) CanTransition(from, to AccountState) bool {
	if allowed, ok := sm.transitions[from]; ok {
		_, exists := allowed[to]
		return exists
	}
	return false
}

func (sm *accountStateMachine) CurrentState(account *Account) AccountState {
	if account == nil {
		return ""
	}
	return account.State()
}

func applyState(account *Account, target AccountState, now time.Time) {
	switch target {
	case AccountStateActive:
		account.Active = true
		account.EmailConfirmed = true
		account.clearConfirmToken()
	case AccountStateDeactivated:
		account.Active = false
		account.EmailConfirmed = false
	}
	account.UpdatedAt = &now
}

func runHooks(ctx context.Context, hooks []TransitionHook, tc TransitionContext) error {
	for _, hook := range hooks {
		if hook == nil {
			continue
		}
		if err := hook(ctx, tc); err != nil {
			return err
		}
	}
	return nil
}

func transitionMetadata(meta TransitionMetadata) map[string]any {
	if meta.Reason == "" && len(meta.Metadata) == 0 {
		return nil
	}

	result := map[string]any{}
	if meta.Reason != "" {
		result["reason"] = meta.Reason
	}
	for k, v := range meta.Metadata {
		result[k] = v
	}
	return result
}
