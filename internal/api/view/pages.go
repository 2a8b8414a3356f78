package view

import (
	"github.com/medicore/clinic-portal/internal/core/domain"
	"github.com/medicore/clinic-portal/pkg/pagination"
)

// Page names.
const (
	PageLoading     = "loading"
	PageDenied      = "denied"
	PageError       = "error"
	PageLogin       = "login"
	PageRegister    = "register"
	PageDashboard   = "dashboard"
	PageProfile     = "profile"
	PageQueue       = "queue"
	PageBMI         = "bmi"
	PageStockAlerts = "stock_alerts"
	PageUsers       = "users"
)

type LoadingPage struct {
	Loading bool `json:"loading"`
}

type DeniedPage struct {
	Error   string `json:"error"`
	Role    string `json:"role,omitempty"`
	Landing string `json:"landing"`
}

type ErrorPage struct {
	Status  int    `json:"-"`
	Message string `json:"error"`
}

type LoginPage struct {
	Email string `json:"email,omitempty"`
	Error string `json:"error,omitempty"`
}

type RegisterPage struct {
	Name  string   `json:"name,omitempty"`
	Email string   `json:"email,omitempty"`
	Phone string   `json:"phone,omitempty"`
	Role  string   `json:"role,omitempty"`
	Roles []string `json:"-"`
	Error string   `json:"error,omitempty"`
}

// AuthResult is the JSON answer of a successful login or register.
type AuthResult struct {
	User     *domain.User `json:"user"`
	Redirect string       `json:"redirect"`
}

type Link struct {
	Label string `json:"label"`
	Href  string `json:"href"`
}

type DashboardPage struct {
	Title string       `json:"title"`
	User  *domain.User `json:"user"`
	Links []Link       `json:"links"`
}

type ProfilePage struct {
	User   *domain.User `json:"user"`
	Notice string       `json:"message,omitempty"`
	Error  string       `json:"error,omitempty"`
}

// QueueItem is a screening decorated with its triage colour.
type QueueItem struct {
	domain.Screening
	Color string `json:"triage_color"`
}

type QueuePage struct {
	Items []QueueItem     `json:"data"`
	Meta  pagination.Meta `json:"meta"`
}

type BMIPage struct {
	WeightKg float64     `json:"weight,omitempty"`
	HeightCm float64     `json:"height,omitempty"`
	Result   *domain.BMI `json:"result,omitempty"`
	Error    string      `json:"error,omitempty"`
}

type StockAlertsPage struct {
	Threshold int                 `json:"threshold"`
	Items     []domain.StockAlert `json:"data"`
	Meta      pagination.Meta     `json:"meta"`
}

type UsersPage struct {
	Items []domain.User   `json:"data"`
	Meta  pagination.Meta `json:"meta"`
}
