package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/medicore/clinic-portal/internal/api/view"
	"github.com/medicore/clinic-portal/internal/core/domain"
)

var registerableRoles = []string{domain.RoleDoctor, domain.RoleNurse, domain.RolePharmacist, domain.RoleAdmin}

type AuthHandler struct{}

func NewAuthHandler() *AuthHandler {
	return &AuthHandler{}
}

// LoginForm renders the sign-in page, or sends a signed-in user to their
// dashboard.
//
// @Summary      Sign-in page
// @Tags         auth
// @Produce      html,json
// @Success      200  {object}  view.LoginPage
// @Success      303
// @Router       /login [get]
func (h *AuthHandler) LoginForm(c echo.Context) error {
	store, err := ctxStore(c)
	if err != nil {
		return err
	}
	if snap := store.Snapshot(); snap.Authenticated() {
		return c.Redirect(http.StatusSeeOther, domain.LandingPath(snap.User.RoleName()))
	}
	return view.Respond(c, http.StatusOK, view.PageLogin, view.LoginPage{})
}

// Login authenticates against the clinic backend and starts the session.
//
// @Summary      Login
// @Tags         auth
// @Accept       json,x-www-form-urlencoded
// @Produce      json,html
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  view.AuthResult
// @Success      303
// @Failure      401   {object}  view.LoginPage
// @Failure      422   {object}  view.LoginPage
// @Failure      502   {object}  view.LoginPage
// @Router       /login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	store, err := ctxStore(c)
	if err != nil {
		return err
	}

	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return view.Respond(c, http.StatusBadRequest, view.PageLogin, view.LoginPage{Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return view.Respond(c, http.StatusUnprocessableEntity, view.PageLogin, view.LoginPage{Email: req.Email, Error: err.Error()})
	}

	user, err := store.Login(c.Request().Context(), req.toDomain())
	if err != nil {
		return view.Respond(c, formStatus(err), view.PageLogin, view.LoginPage{Email: req.Email, Error: err.Error()})
	}
	return authenticated(c, user)
}

// RegisterForm renders the registration page.
//
// @Summary      Registration page
// @Tags         auth
// @Produce      html,json
// @Success      200  {object}  view.RegisterPage
// @Router       /register [get]
func (h *AuthHandler) RegisterForm(c echo.Context) error {
	return view.Respond(c, http.StatusOK, view.PageRegister, view.RegisterPage{Roles: registerableRoles, Role: domain.RoleDoctor})
}

// Register creates an account on the clinic backend and starts the session.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json,x-www-form-urlencoded
// @Produce      json,html
// @Param        body  body      registerRequest  true  "User registration details"
// @Success      200   {object}  view.AuthResult
// @Success      303
// @Failure      422   {object}  view.RegisterPage
// @Failure      502   {object}  view.RegisterPage
// @Router       /register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	store, err := ctxStore(c)
	if err != nil {
		return err
	}

	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return view.Respond(c, http.StatusBadRequest, view.PageRegister, view.RegisterPage{Roles: registerableRoles, Error: "invalid payload"})
	}
	page := view.RegisterPage{Name: req.Name, Email: req.Email, Phone: req.Phone, Role: req.Role, Roles: registerableRoles}
	if err := c.Validate(&req); err != nil {
		page.Error = err.Error()
		return view.Respond(c, http.StatusUnprocessableEntity, view.PageRegister, page)
	}

	user, err := store.Register(c.Request().Context(), req.toDomain())
	if err != nil {
		page.Error = err.Error()
		return view.Respond(c, formStatus(err), view.PageRegister, page)
	}
	return authenticated(c, user)
}

// Logout ends the session. It always succeeds.
//
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Success      200  {object}  map[string]string
// @Success      303
// @Router       /logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	store, err := ctxStore(c)
	if err != nil {
		return err
	}
	store.Logout(c.Request().Context())

	if view.WantsJSON(c) {
		return c.JSON(http.StatusOK, map[string]string{"message": "Logged out"})
	}
	return c.Redirect(http.StatusSeeOther, "/login")
}

func authenticated(c echo.Context, user *domain.User) error {
	landing := domain.LandingPath(user.RoleName())
	if view.WantsJSON(c) {
		return c.JSON(http.StatusOK, view.AuthResult{User: user, Redirect: landing})
	}
	return c.Redirect(http.StatusSeeOther, landing)
}
