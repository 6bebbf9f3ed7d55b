package models

type User struct {
	ID                 string  `json:"id"`
	Email              string  `json:"email,omitempty"`
	Profile            Profile `json:"profile"`
	IsProfileCompleted bool    `json:"isProfileCompleted,omitempty"`
	// UpdatedTS (ns) - last time the remote reported a change
	UpdatedTS int64 `json:"updatedTs,omitempty"`
}

type Profile struct {
	// Name is the unique lowercase handle
	Name        string `json:"name,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
	Avatar      string `json:"avatar,omitempty"`
	Bio         string `json:"bio,omitempty"`
}
