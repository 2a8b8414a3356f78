package domain

// Envelope is the response shape every clinic backend endpoint uses.
type Envelope[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    T      `json:"data,omitempty"`
	Errors  any    `json:"errors,omitempty"`
}

// RawResponse, passed as the out value of a backend call, receives the
// undecoded body together with the backend status.
type RawResponse struct {
	Status int
	Body   []byte
}

// AuthPayload is the data of a successful login or register call.
type AuthPayload struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

// Credentials is the login request body.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration is the register request body.
type Registration struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
	Role                 string `json:"role,omitempty"`
	Phone                string `json:"phone,omitempty"`
}

// ProfileUpdate carries the fields a user may change on their own record.
// Nil fields are left untouched by the backend.
type ProfileUpdate struct {
	Name           *string `json:"name,omitempty"`
	Email          *string `json:"email,omitempty"`
	Phone          *string `json:"phone,omitempty"`
	Address        *string `json:"address,omitempty"`
	Specialization *string `json:"specialization,omitempty"`
}

// Empty reports whether no field is set.
func (p ProfileUpdate) Empty() bool {
	return p.Name == nil && p.Email == nil && p.Phone == nil && p.Address == nil && p.Specialization == nil
}
