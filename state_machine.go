package portal

// TwoFactorState is a position in the two factor sub-flow.
type TwoFactorState string

const (
	TwoFactorDisabled          TwoFactorState = "disabled"
	TwoFactorAwaitingPassword  TwoFactorState = "awaiting_password"
	TwoFactorEnrolling         TwoFactorState = "enrolling"
	TwoFactorAwaitingCode      TwoFactorState = "awaiting_code"
	TwoFactorEnabled           TwoFactorState = "enabled"
	TwoFactorAwaitingLoginCode TwoFactorState = "awaiting_login_code"
	TwoFactorVerified          TwoFactorState = "verified"
)

// TwoFactorIntent says which way a password confirmation goes.
type TwoFactorIntent string

const (
	IntentEnable  TwoFactorIntent = "enable"
	IntentDisable TwoFactorIntent = "disable"
)

// TransitionContext is passed to hooks after a state change.
type TransitionContext struct {
	UserID string
	Intent TwoFactorIntent
	From   TwoFactorState
	To     TwoFactorState
}

// TransitionHook runs after a successful transition.
type TransitionHook func(tc TransitionContext)

// TwoFactorMachine holds the allowed transitions of the sub-flow.
type TwoFactorMachine struct {
	transitions map[TwoFactorState]map[TwoFactorState]struct{}
	after       []TransitionHook
}

func NewTwoFactorMachine() *TwoFactorMachine {
	return &TwoFactorMachine{
		transitions: map[TwoFactorState]map[TwoFactorState]struct{}{
			TwoFactorDisabled: {
				TwoFactorAwaitingPassword: {},
			},
			TwoFactorEnabled: {
				TwoFactorAwaitingPassword: {},
			},
			TwoFactorAwaitingPassword: {
				TwoFactorEnrolling: {},
				TwoFactorDisabled:  {},
				TwoFactorEnabled:   {},
			},
			TwoFactorEnrolling: {
				TwoFactorAwaitingCode: {},
				TwoFactorDisabled:     {},
			},
			TwoFactorAwaitingCode: {
				TwoFactorEnabled:  {},
				TwoFactorDisabled: {},
			},
			TwoFactorAwaitingLoginCode: {
				TwoFactorVerified: {},
			},
		},
	}
}

// AfterTransition registers a hook. Hooks do not run for self transitions.
func (m *TwoFactorMachine) AfterTransition(hook TransitionHook) {
	if hook != nil {
		m.after = append(m.after, hook)
	}
}

func (m *TwoFactorMachine) CanTransition(from, to TwoFactorState) bool {
	if from == to {
		return true
	}
	allowed, ok := m.transitions[from]
	if !ok {
		return false
	}
	_, ok = allowed[to]
	return ok
}

// Transition moves e to target or returns ErrInvalidTransition.
func (m *TwoFactorMachine) Transition(e *TwoFactorEnrollment, target TwoFactorState) error {
	if e == nil {
		return ErrInvalidTransition.Clone().WithMetadata(map[string]any{
			"to":     target,
			"reason": "enrollment is nil",
		})
	}
	if !m.CanTransition(e.State, target) {
		return ErrInvalidTransition.Clone().WithMetadata(map[string]any{
			"from": e.State,
			"to":   target,
		})
	}

	from := e.State
	e.State = target
	if from == target {
		return nil
	}

	tc := TransitionContext{UserID: e.UserID, Intent: e.Intent, From: from, To: target}
	for _, hook := range m.after {
		hook(tc)
	}
	return nil
}
