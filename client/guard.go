package client

// GuardState is a route guard decision for a protected view.
type GuardState int

const (
	// GuardLoading holds rendering while the session is still resolving.
	GuardLoading GuardState = iota
	// GuardRedirect sends the visitor to the sign-in page.
	GuardRedirect
	// GuardRender shows the protected content.
	GuardRender
)

func (g GuardState) String() string {
	switch g {
	case GuardLoading:
		return "loading"
	case GuardRedirect:
		return "redirect"
	case GuardRender:
		return "render"
	}
	return "unknown"
}

// EvaluateGuard decides what a protected route shows. While the session is
// still loading the answer is always Loading, never Redirect, so a slow
// bootstrap cannot bounce an authenticated user to the sign-in page.
func EvaluateGuard(ident *Identity, isLoading bool) GuardState {
	if isLoading {
		return GuardLoading
	}
	if ident == nil {
		return GuardRedirect
	}
	return GuardRender
}
