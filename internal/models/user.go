package models

// User is one GitHub user returned by the search API. Optional fields are nil
// when the API did not return them.
type User struct {
	Login     string  `json:"login"`
	Name      *string `json:"name,omitempty"`
	Bio       *string `json:"bio,omitempty"`
	Location  *string `json:"location,omitempty"`
	Followers *int    `json:"followers,omitempty"`
}

func (u User) DisplayName() string {
	return deref(u.Name)
}

func (u User) BioText() string {
	return deref(u.Bio)
}

func (u User) LocationText() string {
	return deref(u.Location)
}

// FollowerCount returns 0 when the followers object was absent.
func (u User) FollowerCount() int {
	if u.Followers == nil {
		return 0
	}
	return *u.Followers
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
