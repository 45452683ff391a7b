package models

import "encoding/json"

// Principal is the authenticated identity driving authorization decisions.
type Principal struct {
	Role  Role   `json:"role"`
	Token string `json:"token"`
	// UserData is the denormalised profile payload returned at login.
	UserData json.RawMessage `json:"userData,omitempty"`
}

// Profile is the subset of UserData the portal reads.
type Profile struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

// Profile decodes UserData; missing or malformed payloads yield a zero Profile.
func (p *Principal) Profile() Profile {
	var out Profile
	if p == nil || len(p.UserData) == 0 {
		return out
	}
	_ = json.Unmarshal(p.UserData, &out)
	return out
}

// Clone copies the principal including its profile bytes.
func (p *Principal) Clone() *Principal {
	if p == nil {
		return nil
	}
	out := *p
	if p.UserData != nil {
		out.UserData = append(json.RawMessage(nil), p.UserData...)
	}
	return &out
}
