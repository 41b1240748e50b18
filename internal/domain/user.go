package domain

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type User struct {
	ID                  string    `json:"id"`
	Email               string    `json:"email"`
	FirstName           string    `json:"firstName"`
	LastName            string    `json:"lastName"`
	Phone               string    `json:"phone,omitempty"`
	AvatarURL           string    `json:"avatarUrl,omitempty"`
	Role                Role      `json:"role"`
	Addresses           []Address `json:"addresses,omitempty"`
	DefaultAddressIndex *int      `json:"defaultAddressIndex,omitempty"`
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u User) DefaultAddress() (Address, bool) {
	if u.DefaultAddressIndex == nil {
		return Address{}, false
	}
	idx := *u.DefaultAddressIndex
	if idx < 0 || idx >= len(u.Addresses) {
		return Address{}, false
	}
	return u.Addresses[idx], true
}

// Profile is the part of a user kept client-side between logins, keyed by email.
type Profile struct {
	Phone               string    `json:"phone,omitempty"`
	AvatarURL           string    `json:"avatarUrl,omitempty"`
	Addresses           []Address `json:"addresses,omitempty"`
	DefaultAddressIndex *int      `json:"defaultAddressIndex,omitempty"`
}

func (u User) Profile() Profile {
	return Profile{
		Phone:               u.Phone,
		AvatarURL:           u.AvatarURL,
		Addresses:           u.Addresses,
		DefaultAddressIndex: u.DefaultAddressIndex,
	}
}

// MergeProfile fills fields the server left empty from a saved profile.
func (u User) MergeProfile(saved Profile) User {
	if u.Phone == "" {
		u.Phone = saved.Phone
	}
	if u.AvatarURL == "" {
		u.AvatarURL = saved.AvatarURL
	}
	if len(u.Addresses) == 0 && len(saved.Addresses) > 0 {
		u.Addresses = append([]Address(nil), saved.Addresses...)
	}
	if u.DefaultAddressIndex == nil && saved.DefaultAddressIndex != nil {
		idx := *saved.DefaultAddressIndex
		u.DefaultAddressIndex = &idx
	}
	return u
}

type UserPatch struct {
	FirstName           *string   `json:"firstName,omitempty"`
	LastName            *string   `json:"lastName,omitempty"`
	Phone               *string   `json:"phone,omitempty"`
	AvatarURL           *string   `json:"avatarUrl,omitempty"`
	Addresses           []Address `json:"addresses,omitempty" validate:"omitempty,dive"`
	DefaultAddressIndex *int      `json:"defaultAddressIndex,omitempty" validate:"omitempty,gte=0"`
}

func (u User) Apply(patch UserPatch) User {
	if patch.FirstName != nil {
		u.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		u.LastName = *patch.LastName
	}
	if patch.Phone != nil {
		u.Phone = *patch.Phone
	}
	if patch.AvatarURL != nil {
		u.AvatarURL = *patch.AvatarURL
	}
	if patch.Addresses != nil {
		u.Addresses = append([]Address(nil), patch.Addresses...)
	}
	if patch.DefaultAddressIndex != nil {
		idx := *patch.DefaultAddressIndex
		u.DefaultAddressIndex = &idx
	}
	return u
}

type RegisterInput struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Phone     string `json:"phone,omitempty"`
}

type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResult is the payload of /auth/login and /auth/register.
type AuthResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
