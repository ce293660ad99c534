package pages

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/gurpreetgarry91/pbs-frontend/internal/domain/model"
	"github.com/gurpreetgarry91/pbs-frontend/internal/ui/i18n"
)

func TestMain(m *testing.M) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	if _, err := i18n.Load(logger); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func renderPage(t *testing.T, lang string, render func(ctx context.Context, buf *bytes.Buffer) error) string {
	t.Helper()
	var buf bytes.Buffer
	if err := render(i18n.WithLang(context.Background(), lang), &buf); err != nil {
		t.Fatalf("ошибка рендеринга: %v", err)
	}
	return buf.String()
}

func TestAllPagesParse(t *testing.T) {
	for _, name := range append(layoutPages, "signin") {
		if _, ok := sets[name]; !ok {
			t.Errorf("шаблон %s не загружен", name)
		}
	}
}

func TestUsersPage(t *testing.T) {
	data := UsersData{
		Layout: Layout{Title: "title.users", Nav: NavUsers, UserName: "admin", Notice: "notice.saved"},
		Query:  "ann",
		Users: []model.User{
			{ID: 7, UserName: "ann<script>", Email: "ann@pbs.local", Role: model.RoleSubscriber, Active: true},
			{ID: 8, UserName: "bob", Email: "bob@pbs.local", Role: "editor"},
		},
	}
	out := renderPage(t, "en", func(ctx context.Context, buf *bytes.Buffer) error {
		return Users(data).Render(ctx, buf)
	})

	for _, want := range []string{
		"ann&lt;script&gt;",
		"/dashboard/users/7/edit",
		`action="/dashboard/users/8/delete"`,
		`data-confirm="Delete this user?"`,
		"Subscriber",
		"editor",
		"Saved.",
		`value="ann"`,
		`class="active">Users`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("страница пользователей не содержит %q", want)
		}
	}
	if strings.Contains(out, "<script>") {
		t.Error("имя пользователя должно экранироваться")
	}
}

func TestUsersPage_Russian(t *testing.T) {
	out := renderPage(t, "ru", func(ctx context.Context, buf *bytes.Buffer) error {
		return Users(UsersData{Layout: Layout{Title: "title.users"}, ListError: true}).Render(ctx, buf)
	})
	if !strings.Contains(out, `<html lang="ru">`) {
		t.Error("ожидался lang=ru")
	}
	if !strings.Contains(out, "Не удалось загрузить данные с сервера.") {
		t.Error("ожидалось сообщение об ошибке загрузки на русском")
	}
	if !strings.Contains(out, "Пользователи не найдены.") {
		t.Error("ожидалось сообщение о пустом списке")
	}
}

func TestUserSubscriptionForm(t *testing.T) {
	data := UserSubscriptionFormData{
		Layout: Layout{Title: "title.user_subscription_edit"},
		ID:     3,
		Form: UserSubscriptionFormValues{
			UserID: 2, SubscriptionID: 5, StartLocal: "2024-03-01T09:30",
			EndDate: "2024-03-31", Status: model.StatusCancelled,
		},
		Subscribers: []model.User{{ID: 1, UserName: "a"}, {ID: 2, UserName: "b", Email: "b@pbs.local"}},
		Plans:       []model.Subscription{{ID: 5, Name: "Gold", Duration: 30}},
		Statuses:    model.Statuses,
	}
	out := renderPage(t, "en", func(ctx context.Context, buf *bytes.Buffer) error {
		return UserSubscriptionForm(data).Render(ctx, buf)
	})
	for _, want := range []string{
		`action="/dashboard/user-subscriptions/3"`,
		`<option value="2" selected>b (b@pbs.local)</option>`,
		`<option value="5" selected>Gold (30 Days)</option>`,
		`<option value="cancelled" selected>Cancelled</option>`,
		`value="2024-03-01T09:30"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("форма подписки не содержит %q", want)
		}
	}
}

func TestCalendarPage(t *testing.T) {
	data := CalendarData{
		Layout:      Layout{Title: "title.calendar", Nav: NavCalendar},
		Subscribers: []model.User{{ID: 4, UserName: "sub"}},
		SelectedID:  4,
		View:        "month",
		Views:       []string{"month", "week", "day"},
		Heading:     "March 2024",
		Weekdays:    []string{"weekday.0", "weekday.1"},
		Weeks: [][]CalendarCell{{
			{Date: "2024-03-03", Label: 3, InMonth: true, Count: 2},
			{Date: "2024-03-04", Label: 4, InMonth: true, Today: true},
		}},
		Total: 2,
	}
	out := renderPage(t, "en", func(ctx context.Context, buf *bytes.Buffer) error {
		return Calendar(data).Render(ctx, buf)
	})
	for _, want := range []string{
		`<option value="4" selected>sub</option>`,
		`value="2024-03-03"`,
		"2 files",
		"March 2024",
		"<th>Sun</th>",
		"today",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("календарь не содержит %q", want)
		}
	}
}

func TestMediaSessionPage(t *testing.T) {
	data := MediaSessionData{
		Layout:         Layout{Title: "title.media_session"},
		SubscriberName: "sub",
		DateLabel:      "15/03/2024",
		Items: []model.MediaItem{
			{ID: 1, OriginalName: "a.png", URL: "https://cdn/a.png", Kind: model.MediaImage},
			{ID: 2, OriginalName: "b.mp4", URL: "https://cdn/b.mp4", Kind: model.MediaVideo},
		},
		Staged:      []StagedFile{{Index: 0, Name: "c.png", Size: 2048, Image: true}},
		StagedBytes: 2048,
		MaxBytes:    1 << 20,
	}
	out := renderPage(t, "en", func(ctx context.Context, buf *bytes.Buffer) error {
		return MediaSession(data).Render(ctx, buf)
	})
	for _, want := range []string{
		`<img src="https://cdn/a.png"`,
		`<video src="https://cdn/b.mp4"`,
		"/dashboard/calendar-media/session/media/2/delete",
		"/dashboard/calendar-media/session/files/0/remove",
		"Selected 2.0 KB of 1.0 MB.",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("страница медиа не содержит %q", want)
		}
	}
}

func TestSignInPage(t *testing.T) {
	out := renderPage(t, "en", func(ctx context.Context, buf *bytes.Buffer) error {
		return SignIn(SignInData{UserName: "admin", From: "/dashboard/users", Error: "Invalid credentials"}).Render(ctx, buf)
	})
	for _, want := range []string{"Invalid credentials", `value="/dashboard/users"`, `value="admin"`} {
		if !strings.Contains(out, want) {
			t.Errorf("страница входа не содержит %q", want)
		}
	}
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{512, "512 B"},
		{2048, "2.0 KB"},
		{64 << 20, "64.0 MB"},
	}
	for _, tt := range tests {
		if got := FormatSize(tt.in); got != tt.want {
			t.Errorf("FormatSize(%d) = %q, ожидается %q", tt.in, got, tt.want)
		}
	}
}

func TestDict_OddArgs(t *testing.T) {
	if _, err := dict("a"); err == nil {
		t.Error("ожидалась ошибка для нечётного числа аргументов")
	}
}
