package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/medicore/clinic-portal/internal/api/view"
	"github.com/medicore/clinic-portal/internal/core/domain"
)

type ProfileHandler struct{}

func NewProfileHandler() *ProfileHandler {
	return &ProfileHandler{}
}

// Me returns the signed-in user.
//
// @Summary      Current user
// @Tags         profile
// @Produce      json
// @Success      200  {object}  domain.User
// @Failure      401  {object}  map[string]string
// @Router       /me [get]
func (h *ProfileHandler) Me(c echo.Context) error {
	_, user, err := ctxUser(c)
	if err != nil {
		return err
	}
	if view.WantsJSON(c) {
		return c.JSON(http.StatusOK, user)
	}
	return c.Render(http.StatusOK, view.PageProfile, view.ProfilePage{User: user})
}

// Show renders the profile page.
//
// @Summary      Profile page
// @Tags         profile
// @Produce      html,json
// @Success      200  {object}  view.ProfilePage
// @Router       /profile [get]
func (h *ProfileHandler) Show(c echo.Context) error {
	_, user, err := ctxUser(c)
	if err != nil {
		return err
	}
	return view.Respond(c, http.StatusOK, view.PageProfile, view.ProfilePage{User: user})
}

// Update changes the signed-in user's own record. Empty fields are left
// unchanged.
//
// @Summary      Update profile
// @Tags         profile
// @Accept       json,x-www-form-urlencoded
// @Produce      json,html
// @Param        body  body      profileRequest  true  "Changed fields"
// @Success      200   {object}  view.ProfilePage
// @Failure      422   {object}  view.ProfilePage
// @Router       /profile [put]
func (h *ProfileHandler) Update(c echo.Context) error {
	store, user, err := ctxUser(c)
	if err != nil {
		return err
	}

	var req profileRequest
	if err := c.Bind(&req); err != nil {
		return view.Respond(c, http.StatusBadRequest, view.PageProfile, view.ProfilePage{User: user, Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return view.Respond(c, http.StatusUnprocessableEntity, view.PageProfile, view.ProfilePage{User: user, Error: err.Error()})
	}

	updated, err := store.UpdateProfile(c.Request().Context(), req.toDomain())
	if err != nil {
		if errors.Is(err, domain.ErrUnauthenticated) {
			return err
		}
		return view.Respond(c, formStatus(err), view.PageProfile, view.ProfilePage{User: user, Error: err.Error()})
	}
	return view.Respond(c, http.StatusOK, view.PageProfile, view.ProfilePage{User: updated, Notice: "Profile updated"})
}
