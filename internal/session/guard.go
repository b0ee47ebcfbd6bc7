package session

// Route names a screen of the client.
type Route string

// Client routes.
const (
	RouteDashboard      Route = "/"
	RouteSignIn         Route = "signin"
	RouteSignUp         Route = "signup"
	RouteForgotPassword Route = "forgot-password"
	RouteResetPassword  Route = "reset-password"
	RouteNotFound       Route = "not-found"
)

// Outcome is what the gate decided for a route.
type Outcome int

const (
	// Render shows the requested route.
	Render Outcome = iota
	// Wait shows a loading indicator while the identity is being resolved.
	Wait
	// Redirect sends the user to Decision.Target instead.
	Redirect
)

// Decision is the result of Guard.
type Decision struct {
	Outcome Outcome
	Target  Route
}

// Guard decides whether route can be shown in the current session state.
func (s *Session) Guard(route Route) Decision {
	switch route {
	case RouteDashboard:
		if s.Loading() {
			return Decision{Outcome: Wait, Target: route}
		}
		if !s.Authenticated() {
			return Decision{Outcome: Redirect, Target: RouteSignIn}
		}
	case RouteSignIn, RouteSignUp:
		if s.Authenticated() {
			return Decision{Outcome: Redirect, Target: RouteDashboard}
		}
	case RouteForgotPassword, RouteResetPassword:
	default:
		return Decision{Outcome: Render, Target: RouteNotFound}
	}
	return Decision{Outcome: Render, Target: route}
}
