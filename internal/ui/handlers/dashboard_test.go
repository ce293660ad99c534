package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/gurpreetgarry91/pbs-frontend/internal/backend"
	"github.com/gurpreetgarry91/pbs-frontend/internal/domain/model"
)

func TestDashboard_Counts(t *testing.T) {
	api := &fakeAPI{
		users:  []model.User{{ID: 1}, {ID: 2}, {ID: 3}},
		plans:  []model.Subscription{{ID: 1}},
		adsErr: errors.New("ads недоступны"),
	}
	h := NewDashboardHandler(api, &fakeSessions{}, testLogger())
	rec := serve(http.HandlerFunc(h.HandleDashboard), newRequest(http.MethodGet, "/dashboard", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("ожидался 200, получен %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "<strong>3</strong>") {
		t.Error("ожидался счётчик пользователей 3")
	}
	if !strings.Contains(body, "<strong>—</strong>") {
		t.Error("неудачный счётчик должен выводиться прочерком")
	}
}

func TestDashboard_UnauthorizedOnAnyCount(t *testing.T) {
	api := &fakeAPI{plansErr: errUnauthorized}
	sessions := &fakeSessions{}
	h := NewDashboardHandler(api, sessions, testLogger())
	rec := serve(http.HandlerFunc(h.HandleDashboard), newRequest(http.MethodGet, "/dashboard", nil))

	if rec.Code != http.StatusFound {
		t.Fatalf("ожидался 302, получен %d", rec.Code)
	}
	if sessions.cleared != 1 {
		t.Errorf("Clear вызван %d раз, ожидается 1", sessions.cleared)
	}
}

func userSubscriptionsRouter(api *fakeAPI, loc *time.Location) http.Handler {
	h := NewUserSubscriptionsHandler(api, loc, &fakeSessions{}, testLogger())
	r := chi.NewRouter()
	r.Get("/dashboard/user-subscriptions", h.HandleList)
	r.Get("/dashboard/user-subscriptions/{id}/edit", h.HandleEdit)
	r.Post("/dashboard/user-subscriptions", h.HandleCreate)
	return r
}

func TestUserSubscriptions_CreateConvertsStartToUTC(t *testing.T) {
	api := &fakeAPI{}
	loc := time.FixedZone("UTC+3", 3*60*60)
	form := url.Values{
		"user_id":             {"4"},
		"subscription_id":     {"2"},
		"start_datetime":      {"2024-03-01T10:30"},
		"end_date":            {""},
		"payment_method":      {" card "},
		"subscription_status": {"active"},
	}
	rec := serve(userSubscriptionsRouter(api, loc), newRequest(http.MethodPost, "/dashboard/user-subscriptions", form))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("ожидался 303, получен %d", rec.Code)
	}
	if len(api.createdAssigns) != 1 {
		t.Fatalf("создано %d подписок, ожидается 1", len(api.createdAssigns))
	}
	in := api.createdAssigns[0]
	if in.StartDatetime == nil || *in.StartDatetime != "2024-03-01T07:30:00.000Z" {
		t.Errorf("StartDatetime = %v, ожидается 2024-03-01T07:30:00.000Z", in.StartDatetime)
	}
	if in.EndDate != nil {
		t.Errorf("EndDate = %q, ожидается nil", *in.EndDate)
	}
	if in.PaymentMethod != "card" || in.Status != model.StatusActive {
		t.Errorf("неожиданные данные: %+v", in)
	}
}

func TestUserSubscriptions_CreateInvalid(t *testing.T) {
	tests := []struct {
		name string
		form url.Values
	}{
		{"без пользователя", url.Values{"subscription_id": {"2"}, "subscription_status": {"active"}}},
		{"неизвестный статус", url.Values{"user_id": {"4"}, "subscription_id": {"2"}, "subscription_status": {"paused"}}},
		{"неверная дата", url.Values{"user_id": {"4"}, "subscription_id": {"2"}, "subscription_status": {"active"}, "end_date": {"01/04/2024"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAPI{}
			rec := serve(userSubscriptionsRouter(api, time.UTC), newRequest(http.MethodPost, "/dashboard/user-subscriptions", tt.form))
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("ожидался 400, получен %d", rec.Code)
			}
			if len(api.createdAssigns) != 0 {
				t.Error("некорректная форма не должна отправляться в backend")
			}
		})
	}
}

func TestUserSubscriptions_ListShowsNames(t *testing.T) {
	api := &fakeAPI{
		users: []model.User{{ID: 4, UserName: "ann", Email: "ann@pbs.local", Role: model.RoleSubscriber}},
		plans: []model.Subscription{{ID: 2, Name: "Gold"}},
		assigned: []model.UserSubscription{
			{ID: 1, UserID: 4, SubscriptionID: 2, StartDatetime: "2024-03-01T07:30:00.000Z", Status: model.StatusActive},
			{ID: 2, UserID: 99, SubscriptionID: 2, Status: model.StatusExpired},
		},
	}
	rec := serve(userSubscriptionsRouter(api, time.UTC), newRequest(http.MethodGet, "/dashboard/user-subscriptions", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("ожидался 200, получен %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"ann (ann@pbs.local)", "Gold", "01/03/2024 07:30", "99"} {
		if !strings.Contains(body, want) {
			t.Errorf("страница не содержит %q", want)
		}
	}
}

func TestUserSubscriptions_EditBackendNotFound(t *testing.T) {
	api := &fakeAPI{}
	rec := serve(userSubscriptionsRouter(api, time.UTC), newRequest(http.MethodGet, "/dashboard/user-subscriptions/5/edit", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("ожидался 404, получен %d", rec.Code)
	}
}

func TestFailure(t *testing.T) {
	if got := failure(backend.ErrUnavailable, "error.save_failed"); got != "error.backend_unavailable" {
		t.Errorf("failure(ErrUnavailable) = %q", got)
	}
	if got := failure(errors.New("x"), "error.save_failed"); got != "error.save_failed" {
		t.Errorf("failure(x) = %q", got)
	}
}
