// Package access holds the pure access-control rules shared by the HTTP
// API and the console client: the route guard, the per-role landing page
// and the navigation table.
package access

import "github.com/iliyamo/acrux-trazabilidad/internal/model"

// Outcome is what a guarded view should do.
type Outcome int

const (
	// Allow renders the protected content.
	Allow Outcome = iota
	// Wait renders a transient loading indicator while the session is
	// still being restored.
	Wait
	// RedirectLogin sends the user to the login entry point.
	RedirectLogin
	// Denied renders an in-place access denied message.
	Denied
)

func (o Outcome) String() string {
	switch o {
	case Allow:
		return "allow"
	case Wait:
		return "wait"
	case RedirectLogin:
		return "redirect_login"
	case Denied:
		return "denied"
	}
	return "unknown"
}

// Status is the slice of auth state the guard looks at.
type Status struct {
	Loading       bool
	Authenticated bool
	Role          model.Role
}

// Decision is the result of Decide.  Target and Replace are set only for
// RedirectLogin; Role is the caller's actual role and is set for Denied.
type Decision struct {
	Outcome Outcome
	Target  string
	Replace bool
	Role    model.Role
}

// Decide evaluates a guard configured with allowed roles against st.  An
// empty allowed list admits any authenticated user.  Redirects always
// replace the history entry so back-navigation does not return to the
// guarded view.
func Decide(st Status, allowed []model.Role) Decision {
	if st.Loading {
		return Decision{Outcome: Wait}
	}
	if !st.Authenticated {
		return Decision{Outcome: RedirectLogin, Target: LoginPath, Replace: true}
	}
	if len(allowed) > 0 && !contains(allowed, st.Role) {
		return Decision{Outcome: Denied, Role: st.Role}
	}
	return Decision{Outcome: Allow}
}

func contains(roles []model.Role, r model.Role) bool {
	for _, x := range roles {
		if x == r {
			return true
		}
	}
	return false
}
