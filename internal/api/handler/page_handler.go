package handler

import (
	"net/http"
	"sort"

	"github.com/labstack/echo/v4"

	"github.com/medicore/clinic-portal/internal/api/view"
	"github.com/medicore/clinic-portal/internal/core/domain"
	"github.com/medicore/clinic-portal/pkg/pagination"
)

var dashboardLinks = map[string][]view.Link{
	domain.RoleAdmin: {
		{Label: "Users", Href: "/admin/users"},
		{Label: "Patient queue", Href: "/doctor/queue"},
		{Label: "Stock alerts", Href: "/pharmacist/stock-alerts"},
		{Label: "Profile", Href: "/profile"},
	},
	domain.RoleDoctor: {
		{Label: "Patient queue", Href: "/doctor/queue"},
		{Label: "BMI calculator", Href: "/nurse/bmi"},
		{Label: "Profile", Href: "/profile"},
	},
	domain.RoleNurse: {
		{Label: "BMI calculator", Href: "/nurse/bmi"},
		{Label: "Profile", Href: "/profile"},
	},
	domain.RolePharmacist: {
		{Label: "Stock alerts", Href: "/pharmacist/stock-alerts"},
		{Label: "Profile", Href: "/profile"},
	},
}

// PageHandler serves the role dashboards and the pages built on backend
// lists. Each page makes its own backend calls through the visitor's store.
type PageHandler struct {
	stockThreshold int
}

func NewPageHandler(stockThreshold int) *PageHandler {
	return &PageHandler{stockThreshold: stockThreshold}
}

// Dashboard returns the handler for a role's landing page.
func (h *PageHandler) Dashboard(title, role string) echo.HandlerFunc {
	links := dashboardLinks[role]
	return func(c echo.Context) error {
		_, user, err := ctxUser(c)
		if err != nil {
			return err
		}
		return view.Respond(c, http.StatusOK, view.PageDashboard, view.DashboardPage{Title: title, User: user, Links: links})
	}
}

// Landing sends any unmatched path to the user's dashboard.
func (h *PageHandler) Landing(c echo.Context) error {
	_, user, err := ctxUser(c)
	if err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, domain.LandingPath(user.RoleName()))
}

// Queue lists screenings, most urgent triage level first.
//
// @Summary      Patient queue
// @Tags         doctor
// @Produce      json,html
// @Param        page   query     int  false  "Page"
// @Param        limit  query     int  false  "Items per page"
// @Success      200    {object}  view.QueuePage
// @Router       /doctor/queue [get]
func (h *PageHandler) Queue(c echo.Context) error {
	store, _, err := ctxUser(c)
	if err != nil {
		return err
	}

	var env domain.Envelope[[]domain.Screening]
	if err := store.Call(c.Request().Context(), http.MethodGet, "/screenings", nil, &env); err != nil {
		return err
	}

	items := make([]view.QueueItem, len(env.Data))
	for i, s := range env.Data {
		items[i] = view.QueueItem{Screening: s, Color: domain.TriageColor(s.TriageLevel)}
	}
	sort.SliceStable(items, func(i, j int) bool {
		return triageRank(items[i].TriageLevel) < triageRank(items[j].TriageLevel)
	})

	page, meta := pagination.Slice(items, pagination.FromRequest(c.Request()))
	return view.Respond(c, http.StatusOK, view.PageQueue, view.QueuePage{Items: page, Meta: meta})
}

// triageRank orders known levels 1..5 first, unknown levels last.
func triageRank(level int) int {
	if level < 1 || level > 5 {
		return 6
	}
	return level
}

type bmiRequest struct {
	WeightKg float64 `json:"weight" form:"weight" validate:"gt=0"`
	HeightCm float64 `json:"height" form:"height" validate:"gt=0"`
}

// BMIForm renders the empty calculator.
func (h *PageHandler) BMIForm(c echo.Context) error {
	return view.Respond(c, http.StatusOK, view.PageBMI, view.BMIPage{})
}

// BMI computes a body-mass index.
//
// @Summary      Compute BMI
// @Tags         nurse
// @Accept       json,x-www-form-urlencoded
// @Produce      json,html
// @Param        body  body      bmiRequest  true  "Weight (kg) and height (cm)"
// @Success      200   {object}  view.BMIPage
// @Failure      422   {object}  view.BMIPage
// @Router       /nurse/bmi [post]
func (h *PageHandler) BMI(c echo.Context) error {
	var req bmiRequest
	if err := c.Bind(&req); err != nil {
		return view.Respond(c, http.StatusBadRequest, view.PageBMI, view.BMIPage{Error: "invalid payload"})
	}
	page := view.BMIPage{WeightKg: req.WeightKg, HeightCm: req.HeightCm}
	if err := c.Validate(&req); err != nil {
		page.Error = err.Error()
		return view.Respond(c, http.StatusUnprocessableEntity, view.PageBMI, page)
	}

	bmi, err := domain.ComputeBMI(req.WeightKg, req.HeightCm)
	if err != nil {
		page.Error = err.Error()
		return view.Respond(c, http.StatusUnprocessableEntity, view.PageBMI, page)
	}
	page.Result = &bmi
	return view.Respond(c, http.StatusOK, view.PageBMI, page)
}

// StockAlerts lists medicines at or below the alert threshold.
//
// @Summary      Stock alerts
// @Tags         pharmacist
// @Produce      json,html
// @Param        page   query     int  false  "Page"
// @Param        limit  query     int  false  "Items per page"
// @Success      200    {object}  view.StockAlertsPage
// @Router       /pharmacist/stock-alerts [get]
func (h *PageHandler) StockAlerts(c echo.Context) error {
	store, _, err := ctxUser(c)
	if err != nil {
		return err
	}

	var env domain.Envelope[[]domain.Medicine]
	if err := store.Call(c.Request().Context(), http.MethodGet, "/medicines", nil, &env); err != nil {
		return err
	}

	alerts := domain.StockAlerts(env.Data, h.stockThreshold)
	page, meta := pagination.Slice(alerts, pagination.FromRequest(c.Request()))
	return view.Respond(c, http.StatusOK, view.PageStockAlerts, view.StockAlertsPage{
		Threshold: h.stockThreshold,
		Items:     page,
		Meta:      meta,
	})
}

// Users lists the clinic's accounts.
//
// @Summary      Users
// @Tags         admin
// @Produce      json,html
// @Param        page   query     int  false  "Page"
// @Param        limit  query     int  false  "Items per page"
// @Success      200    {object}  view.UsersPage
// @Router       /admin/users [get]
func (h *PageHandler) Users(c echo.Context) error {
	store, _, err := ctxUser(c)
	if err != nil {
		return err
	}

	var env domain.Envelope[[]domain.User]
	if err := store.Call(c.Request().Context(), http.MethodGet, "/users", nil, &env); err != nil {
		return err
	}

	page, meta := pagination.Slice(env.Data, pagination.FromRequest(c.Request()))
	return view.Respond(c, http.StatusOK, view.PageUsers, view.UsersPage{Items: page, Meta: meta})
}
