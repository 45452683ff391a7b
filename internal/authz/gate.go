// Package authz decides what a route render shows for the current session.
//
// Evaluate is a pure projection of {principal, loading, route}; nothing is
// persisted between renders. A principal whose role does not match the route
// is treated exactly like a logged-out user: the session is cleared and the
// login view shown, with no error surfaced.
package authz

import (
	"complaintportal/backend/internal/models"
	"context"
	"log"
)

// State is the outcome class of an evaluation.
type State int

const (
	StateLoading State = iota
	StateUnauthenticated
	StateRoleMismatch
	StateAuthorized
	StateRoleAutoRedirect
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateUnauthenticated:
		return "unauthenticated"
	case StateRoleMismatch:
		return "role_mismatch"
	case StateAuthorized:
		return "authorized"
	case StateRoleAutoRedirect:
		return "role_auto_redirect"
	default:
		return "unknown"
	}
}

// Action is what the presentation layer must do.
type Action int

const (
	ActionShowLoading Action = iota
	ActionRenderLogin
	ActionForceLogout
	ActionRender
	ActionRedirect
)

func (a Action) String() string {
	switch a {
	case ActionShowLoading:
		return "show_loading"
	case ActionRenderLogin:
		return "render_login"
	case ActionForceLogout:
		return "force_logout"
	case ActionRender:
		return "render"
	case ActionRedirect:
		return "redirect"
	default:
		return "unknown"
	}
}

// Decision is the result of evaluating one render.
type Decision struct {
	State  State
	Action Action
	// Target is the view to render or the path to redirect to.
	Target string
}

// Evaluate maps {principal, loading, route} to a decision.
func Evaluate(p *models.Principal, loading bool, route Route) Decision {
	if loading {
		return Decision{State: StateLoading, Action: ActionShowLoading}
	}
	if p == nil {
		return Decision{State: StateUnauthenticated, Action: ActionRenderLogin, Target: LoginPath}
	}
	if !p.Role.Valid() {
		return Decision{State: StateRoleMismatch, Action: ActionForceLogout, Target: LoginPath}
	}

	if route.Required == "" {
		return Decision{State: StateRoleAutoRedirect, Action: ActionRedirect, Target: p.Role.HomePath()}
	}
	if p.Role != route.Required {
		return Decision{State: StateRoleMismatch, Action: ActionForceLogout, Target: LoginPath}
	}
	return Decision{State: StateAuthorized, Action: ActionRender, Target: route.Pattern}
}

// Session is the part of the session store the gate needs.
type Session interface {
	Current() *models.Principal
	IsLoading() bool
	Logout(ctx context.Context) error
}

// Gate evaluates routes against a live session and carries out forced logouts.
type Gate struct {
	Session Session
	Routes  *Table
}

// NewGate binds the default route table to a session.
func NewGate(s Session) *Gate {
	return &Gate{Session: s, Routes: DefaultRoutes()}
}

// Enter evaluates path. On ActionForceLogout the session is already cleared
// when Enter returns and Target is the login view.
func (g *Gate) Enter(ctx context.Context, path string) Decision {
	route := g.Routes.Match(path)
	d := Evaluate(g.Session.Current(), g.Session.IsLoading(), route)

	if d.Action == ActionForceLogout {
		if err := g.Session.Logout(ctx); err != nil {
			log.Printf("ERROR: forced logout failed: %v", err)
		}
	}
	return d
}
