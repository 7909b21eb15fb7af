// Package auth implements the credential codec for Spotify's implicit grant.
//
// The implicit grant returns a bearer token directly in the redirect fragment:
//
//	#access_token=...&token_type=Bearer&expires_in=3600&state=...
//
// There is no code exchange and no refresh token. [BuildAuthorizationURL] constructs the authorize URL with
// response_type=token and show_dialog=true so the consent screen is always shown. [ParseCredentialFromFragment]
// turns a fragment into a [models.Credential] whose expiry is computed from the relative expires_in value.
//
// Both functions are pure; [Codec] only binds configuration and a clock to them.
package auth
