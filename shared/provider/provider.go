// Package provider resolves external identity-provider credentials into a
// normalized identity tuple. The redirect/consent flow happens on the
// client; this package only verifies what the client hands over.
package provider

// Identity is the normalized result of a provider login.
type Identity struct {
	Provider     string
	Profile      Profile
	AccessToken  string
	RefreshToken string
}

// Profile is the subset of a provider profile the auth service consumes.
type Profile struct {
	ExternalID    string
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
}
