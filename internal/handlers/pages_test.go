package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/posadmin/internal/access"
	"github.com/charlesng35/posadmin/internal/handlers/testutil"
	"github.com/charlesng35/posadmin/internal/monitoring"
)

type pageBody struct {
	Page         string `json:"page"`
	CallbackURL  string `json:"callback_url"`
	Organization string `json:"organization_id"`
	Role         string `json:"role"`
}

func TestPageHandler_RedirectTargetsResolve(t *testing.T) {
	env := testutil.NewEnv(t)

	w := env.Request(http.MethodGet, "/login?callbackUrl=%2Fadmin%2Fsales", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var page pageBody
	testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &page)
	require.Equal(t, "login", page.Page)
	require.Equal(t, "/admin/sales", page.CallbackURL)

	w = env.Request(http.MethodGet, "/login?callbackUrl=https%3A%2F%2Fevil.example", nil, "")
	testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &page)
	require.Equal(t, "/dashboard", page.CallbackURL)

	w = env.Request(http.MethodGet, "/unauthorized", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = env.Request(http.MethodGet, "/onboarding/org-9", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &page)
	require.Equal(t, "onboarding", page.Page)
	require.Equal(t, "org-9", page.Organization)
}

func TestPageHandler_UnassignedUserGoesToProfileCompletion(t *testing.T) {
	env := testutil.NewEnv(t)
	pending := env.CreateUser("pending", access.RoleUnassigned, "")
	token := env.TokenFor(pending)

	w := env.Request(http.MethodGet, "/dashboard", nil, token)
	require.Equal(t, http.StatusTemporaryRedirect, w.Code)
	require.Equal(t, "/profile/complete", w.Header().Get("Location"))

	w = env.Request(http.MethodGet, "/profile/complete", nil, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var page pageBody
	testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &page)
	require.Equal(t, "profile_complete", page.Page)
	require.Equal(t, "UNASSIGNED", page.Role)
}

func TestPageHandler_DashboardForStaff(t *testing.T) {
	env := testutil.NewEnv(t)
	env.CreateOrganization("org-1", "Corner Shop")
	cashier := env.CreateUser("cashier", access.RoleUser, "org-1")
	token := env.TokenFor(cashier)

	w := env.Request(http.MethodGet, "/dashboard", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	var page pageBody
	testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &page)
	require.Equal(t, "USER", page.Role)
	require.Equal(t, "org-1", page.Organization)

	w = env.Request(http.MethodGet, "/admin", nil, token)
	require.Equal(t, http.StatusTemporaryRedirect, w.Code)
	require.Equal(t, "/unauthorized", w.Header().Get("Location"))
}

func TestHealth(t *testing.T) {
	env := testutil.NewEnv(t)

	w := env.Request(http.MethodGet, "/api/health", nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var report monitoring.HealthReport
	testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &report)
	require.True(t, report.Success)
	require.Len(t, report.Checks, 1)
	require.Equal(t, "database", report.Checks[0].Component)

	w = env.Request(http.MethodGet, "/api/health/live", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
}

func TestHealthReportsUnavailableDatabase(t *testing.T) {
	env := testutil.NewEnv(t)
	sqlDB, err := env.DB.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	w := env.Request(http.MethodGet, "/api/health", nil, "")
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	resp := testutil.DecodeResponse(t, w)
	require.False(t, resp.Success)
	require.Equal(t, "DEPENDENCY_UNAVAILABLE", resp.Error.Code)
}
