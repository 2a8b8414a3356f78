package handler

import "github.com/medicore/clinic-portal/internal/core/domain"

type loginRequest struct {
	Email    string `json:"email"    form:"email"    validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required"`
}

func (r loginRequest) toDomain() domain.Credentials {
	return domain.Credentials{Email: r.Email, Password: r.Password}
}

type registerRequest struct {
	Name                 string `json:"name"                  form:"name"                  validate:"required"`
	Email                string `json:"email"                 form:"email"                 validate:"required,email"`
	Password             string `json:"password"              form:"password"              validate:"required,min=6"`
	PasswordConfirmation string `json:"password_confirmation" form:"password_confirmation" validate:"required,eqfield=Password"`
	Role                 string `json:"role"                  form:"role"                  validate:"omitempty,oneof=admin doctor nurse pharmacist"`
	Phone                string `json:"phone"                 form:"phone"`
}

func (r registerRequest) toDomain() domain.Registration {
	return domain.Registration{
		Name:                 r.Name,
		Email:                r.Email,
		Password:             r.Password,
		PasswordConfirmation: r.PasswordConfirmation,
		Role:                 r.Role,
		Phone:                r.Phone,
	}
}

// profileRequest treats empty fields as unchanged.
type profileRequest struct {
	Name           string `json:"name"           form:"name"`
	Email          string `json:"email"          form:"email"          validate:"omitempty,email"`
	Phone          string `json:"phone"          form:"phone"`
	Address        string `json:"address"        form:"address"`
	Specialization string `json:"specialization" form:"specialization"`
}

func (r profileRequest) toDomain() domain.ProfileUpdate {
	var u domain.ProfileUpdate
	set := func(dst **string, v string) {
		if v != "" {
			*dst = &v
		}
	}
	set(&u.Name, r.Name)
	set(&u.Email, r.Email)
	set(&u.Phone, r.Phone)
	set(&u.Address, r.Address)
	set(&u.Specialization, r.Specialization)
	return u
}
