package auth

// Profile is the verified identity returned by an OIDC provider. It contains
// facts only, no decisions.
type Profile struct {
	Provider string // e.g. "office365", "google"
	Subject  string // provider-scoped unique user identifier (sub)
	Email    string
	Name     string
}
