package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/posadmin/internal/access"
	"github.com/charlesng35/posadmin/internal/handlers/testutil"
	"github.com/charlesng35/posadmin/internal/services"
)

func sendNotification(t *testing.T, env *testutil.Env, token, recipient, title string) services.NotificationDTO {
	t.Helper()

	w := env.Request(http.MethodPost, "/api/notifications", map[string]any{
		"user_id": recipient,
		"title":   title,
		"message": "body",
	}, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var dto services.NotificationDTO
	testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &dto)
	return dto
}

func feedItems(feed services.NotificationFeed) []services.NotificationDTO {
	var items []services.NotificationDTO
	for _, group := range feed.Groups {
		items = append(items, group.Items...)
	}
	return items
}

func TestNotificationHandler_Lifecycle(t *testing.T) {
	env := testutil.NewEnv(t)
	env.CreateOrganization("org-1", "Corner Shop")
	admin := env.CreateUser("admin", access.RoleAdmin, "org-1")
	cashier := env.CreateUser("cashier", access.RoleUser, "org-1")

	adminToken := env.TokenFor(admin)
	cashierToken := env.TokenFor(cashier)

	first := sendNotification(t, env, adminToken, cashier.ID, "Shift starts at 9")
	second := sendNotification(t, env, adminToken, cashier.ID, "Stocktake on Friday")
	require.Equal(t, cashier.ID, first.RecipientUserID)
	require.False(t, first.Read)

	w := env.Request(http.MethodGet, "/api/notifications", nil, cashierToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := testutil.DecodeResponse(t, w)
	require.NotNil(t, resp.Meta)
	require.Equal(t, 2, resp.Meta.Total)
	require.Equal(t, 2, resp.Meta.UnreadCount)

	var feed services.NotificationFeed
	testutil.DecodeInto(t, resp.Data, &feed)
	require.Len(t, feed.Groups, 5)
	require.Equal(t, services.BucketNew, feed.Groups[0].Key)
	require.Len(t, feedItems(feed), 2)

	w = env.Request(http.MethodPost, "/api/notifications/"+first.ID+"/read", nil, cashierToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var marked services.NotificationDTO
	testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &marked)
	require.True(t, marked.Read)

	w = env.Request(http.MethodGet, "/api/notifications/unread-count", nil, cashierToken)
	require.Equal(t, http.StatusOK, w.Code)
	var count struct {
		Count int64 `json:"count"`
	}
	testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &count)
	require.EqualValues(t, 1, count.Count)

	w = env.Request(http.MethodGet, "/api/notifications?filter=unread", nil, cashierToken)
	require.Equal(t, http.StatusOK, w.Code)
	testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &feed)
	unread := feedItems(feed)
	require.Len(t, unread, 1)
	require.Equal(t, second.ID, unread[0].ID)

	w = env.Request(http.MethodPost, "/api/notifications/read-all", nil, cashierToken)
	require.Equal(t, http.StatusOK, w.Code)
	var updated struct {
		Updated int64 `json:"updated"`
	}
	testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &updated)
	require.EqualValues(t, 1, updated.Updated)

	w = env.Request(http.MethodDelete, "/api/notifications/"+second.ID, nil, cashierToken)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.Request(http.MethodDelete, "/api/notifications/"+second.ID, nil, cashierToken)
	require.Equal(t, http.StatusNotFound, w.Code)

	w = env.Request(http.MethodGet, "/api/notifications", nil, cashierToken)
	testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &feed)
	require.Len(t, feedItems(feed), 1)
	require.Zero(t, feed.UnreadCount)
}

func TestNotificationHandler_OwnershipIsEnforced(t *testing.T) {
	env := testutil.NewEnv(t)
	env.CreateOrganization("org-1", "Corner Shop")
	admin := env.CreateUser("admin", access.RoleAdmin, "org-1")
	owner := env.CreateUser("owner", access.RoleUser, "org-1")
	other := env.CreateUser("other", access.RoleUser, "org-1")

	dto := sendNotification(t, env, env.TokenFor(admin), owner.ID, "Private")
	otherToken := env.TokenFor(other)

	w := env.Request(http.MethodPost, "/api/notifications/"+dto.ID+"/read", nil, otherToken)
	require.Equal(t, http.StatusNotFound, w.Code)

	w = env.Request(http.MethodDelete, "/api/notifications/"+dto.ID, nil, otherToken)
	require.Equal(t, http.StatusNotFound, w.Code)

	w = env.Request(http.MethodGet, "/api/notifications/unread-count", nil, env.TokenFor(owner))
	var count struct {
		Count int64 `json:"count"`
	}
	testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &count)
	require.EqualValues(t, 1, count.Count)
}

func TestNotificationHandler_CreateRequiresAdminLikeRole(t *testing.T) {
	env := testutil.NewEnv(t)
	env.CreateOrganization("org-1", "Corner Shop")
	cashier := env.CreateUser("cashier", access.RoleUser, "org-1")
	peer := env.CreateUser("peer", access.RoleUser, "org-1")

	w := env.Request(http.MethodPost, "/api/notifications", map[string]any{
		"user_id": peer.ID,
		"title":   "hello",
	}, env.TokenFor(cashier))
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestNotificationHandler_RejectsInvalidInput(t *testing.T) {
	env := testutil.NewEnv(t)
	env.CreateOrganization("org-1", "Corner Shop")
	manager := env.CreateUser("manager", access.RoleManager, "org-1")
	token := env.TokenFor(manager)

	w := env.Request(http.MethodGet, "/api/notifications?filter=archived", nil, token)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = env.Request(http.MethodPost, "/api/notifications", map[string]any{
		"user_id":  manager.ID,
		"title":    "   ",
		"priority": "urgent",
	}, token)
	require.Equal(t, http.StatusBadRequest, w.Code)
	msg := testutil.DecodeResponse(t, w).Error.Message
	require.Contains(t, msg, "title is required")
	require.Contains(t, msg, "priority must be one of: low, medium, high")
}

func TestNotificationHandler_CreateStaysInsideOrganization(t *testing.T) {
	env := testutil.NewEnv(t)
	env.CreateOrganization("org-a", "Corner Shop")
	env.CreateOrganization("org-b", "Harbour Deli")
	manager := env.CreateUser("mgr-a", access.RoleManager, "org-a")
	env.CreateUser("cashier-b", access.RoleUser, "org-b")
	root := env.CreateUser("root", access.RoleSuperAdmin, "")
	token := env.TokenFor(manager)

	countRows := func() int64 {
		var n int64
		require.NoError(t, env.DB.Table("notifications").Count(&n).Error)
		return n
	}

	for _, recipient := range []string{"cashier-b", "does-not-exist", root.ID} {
		w := env.Request(http.MethodPost, "/api/notifications", map[string]any{
			"user_id": recipient,
			"title":   "Till audit",
		}, token)
		require.Equal(t, http.StatusNotFound, w.Code, recipient)
		require.Equal(t, "USER_NOT_FOUND", testutil.DecodeResponse(t, w).Error.Code)
	}
	require.Zero(t, countRows())

	dto := sendNotification(t, env, env.TokenFor(root), "cashier-b", "Platform maintenance")
	require.Equal(t, "cashier-b", dto.RecipientUserID)
	require.EqualValues(t, 1, countRows())
}

func TestNotificationHandler_CreateRejectsOffSiteActionURL(t *testing.T) {
	env := testutil.NewEnv(t)
	env.CreateOrganization("org-a", "Corner Shop")
	manager := env.CreateUser("mgr-a", access.RoleManager, "org-a")
	cashier := env.CreateUser("cashier-a", access.RoleUser, "org-a")
	token := env.TokenFor(manager)

	for _, target := range []string{"https://evil.example", "//evil.example", "/\t/evil.example"} {
		w := env.Request(http.MethodPost, "/api/notifications", map[string]any{
			"user_id":    cashier.ID,
			"title":      "Reset your PIN",
			"action_url": target,
		}, token)
		require.Equal(t, http.StatusBadRequest, w.Code, target)
	}

	w := env.Request(http.MethodPost, "/api/notifications", map[string]any{
		"user_id":    cashier.ID,
		"title":      "Review the rota",
		"action_url": "/dashboard",
	}, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var dto services.NotificationDTO
	testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &dto)
	require.Equal(t, "/dashboard", dto.ActionURL)
}
