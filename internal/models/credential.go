package models

import (
	"encoding/json"
	"errors"
	"time"

	"golang.org/x/oauth2"
)

var errMalformedCredential = errors.New("malformed credential record")

// Credential is a bearer token granted through the implicit flow.
//
// There is no refresh token; once ExpiresAt passes the user must reauthorize.
type Credential struct {
	AccessToken string
	ExpiresAt   time.Time
}

// credentialRecord is the persisted JSON shape: { accessToken, expiresAt } with expiresAt in ms since epoch.
type credentialRecord struct {
	AccessToken *string `json:"accessToken"`
	ExpiresAt   *int64  `json:"expiresAt"`
}

// NewCredential creates a [Credential] that expires lifetime after now.
func NewCredential(token string, now time.Time, lifetime time.Duration) *Credential {
	return &Credential{AccessToken: token, ExpiresAt: now.Add(lifetime)}
}

// Valid reports whether the credential can still authorize requests at now.
func (c *Credential) Valid(now time.Time) bool {
	return c != nil && c.AccessToken != "" && now.Before(c.ExpiresAt)
}

// Remaining returns the time left before expiry, or zero once expired.
func (c *Credential) Remaining(now time.Time) time.Duration {
	if !c.Valid(now) {
		return 0
	}
	return c.ExpiresAt.Sub(now)
}

// Token converts the credential into an [oauth2.Token] of type Bearer.
func (c *Credential) Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken: c.AccessToken,
		TokenType:   "Bearer",
		Expiry:      c.ExpiresAt,
	}
}

// MarshalJSON encodes the credential as { accessToken, expiresAt } with expiresAt in milliseconds.
func (c Credential) MarshalJSON() ([]byte, error) {
	ms := c.ExpiresAt.UnixMilli()
	return json.Marshal(credentialRecord{AccessToken: &c.AccessToken, ExpiresAt: &ms})
}

// UnmarshalJSON decodes a persisted record, rejecting records missing either field.
func (c *Credential) UnmarshalJSON(data []byte) error {
	var rec credentialRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}
	if rec.AccessToken == nil || *rec.AccessToken == "" || rec.ExpiresAt == nil {
		return errMalformedCredential
	}

	c.AccessToken = *rec.AccessToken
	c.ExpiresAt = time.UnixMilli(*rec.ExpiresAt)
	return nil
}
