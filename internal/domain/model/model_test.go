package model

import (
	"testing"
	"time"
)

func TestKindFromType(t *testing.T) {
	tests := []struct {
		mediaType string
		want      MediaKind
	}{
		{"image/png", MediaImage},
		{"image/jpeg", MediaImage},
		{"IMAGE/GIF", MediaImage},
		{"image", MediaImage},
		{"video/mp4", MediaVideo},
		{"application/octet-stream", MediaVideo},
		{"", MediaVideo},
	}
	for _, tt := range tests {
		if got := KindFromType(tt.mediaType); got != tt.want {
			t.Errorf("KindFromType(%q) = %v, ожидается %v", tt.mediaType, got, tt.want)
		}
	}
}

func TestFilterSubscribers(t *testing.T) {
	users := []User{
		{ID: 1, Role: RoleAdmin},
		{ID: 2, Role: RoleSubscriber},
		{ID: 3, Role: RoleUser},
		{ID: 4, Role: RoleSubscriber},
	}

	got := FilterSubscribers(users)
	if len(got) != 2 {
		t.Fatalf("ожидалось 2 подписчика, получено %d", len(got))
	}
	if got[0].ID != 2 || got[1].ID != 4 {
		t.Errorf("порядок нарушен: %d, %d", got[0].ID, got[1].ID)
	}
}

func TestUserInputNormalize(t *testing.T) {
	in := UserInput{UserName: "  alice ", Email: " a@b.c "}.Normalize()
	if in.UserName != "alice" || in.Email != "a@b.c" {
		t.Errorf("пробелы не удалены: %q %q", in.UserName, in.Email)
	}
	if in.Role != RoleUser {
		t.Errorf("Role = %q, ожидается %q", in.Role, RoleUser)
	}
}

func TestParseStatus(t *testing.T) {
	for _, s := range []string{"active", "cancelled", "expired"} {
		if _, err := ParseStatus(s); err != nil {
			t.Errorf("ParseStatus(%q) вернул ошибку: %v", s, err)
		}
	}
	if _, err := ParseStatus("paused"); err == nil {
		t.Error("ожидалась ошибка для статуса paused")
	}
}

func TestFormatDisplayDate(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"2024-03-05", "05/03/2024"},
		{"2024-03-05T10:30:00Z", "05/03/2024"},
		{"2024-03-05T10:30:00.123Z", "05/03/2024"},
		{"2024-03-05T10:30:00", "05/03/2024"},
		{"", "-"},
		{"not-a-date", "not-a-date"},
	}
	for _, tt := range tests {
		if got := FormatDisplayDate(tt.in); got != tt.want {
			t.Errorf("FormatDisplayDate(%q) = %q, ожидается %q", tt.in, got, tt.want)
		}
	}
}

func TestLocalInputRoundTrip(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)

	iso, err := ParseLocalInput("2024-03-01T09:30", loc)
	if err != nil {
		t.Fatalf("ParseLocalInput: %v", err)
	}
	if iso == nil || *iso != "2024-03-01T06:30:00.000Z" {
		t.Fatalf("ParseLocalInput = %v, ожидается 2024-03-01T06:30:00.000Z", iso)
	}
	if got := FormatLocalInput(*iso, loc); got != "2024-03-01T09:30" {
		t.Errorf("FormatLocalInput = %q, ожидается 2024-03-01T09:30", got)
	}
	if got := FormatDisplayDateTime(*iso, loc); got != "01/03/2024 09:30" {
		t.Errorf("FormatDisplayDateTime = %q", got)
	}

	if p, err := ParseLocalInput("  ", loc); err != nil || p != nil {
		t.Errorf("пустое значение должно давать nil без ошибки, получено %v, %v", p, err)
	}
	if _, err := ParseLocalInput("01.03.2024", loc); err == nil {
		t.Error("ожидалась ошибка для неверного формата")
	}
}

func TestEndDate(t *testing.T) {
	if got := DateInput("2024-03-31T00:00:00Z"); got != "2024-03-31" {
		t.Errorf("DateInput = %q", got)
	}
	if p, err := ParseEndDate("2024-03-31"); err != nil || *p != "2024-03-31" {
		t.Errorf("ParseEndDate = %v, %v", p, err)
	}
	if p, err := ParseEndDate(""); err != nil || p != nil {
		t.Errorf("пустая дата должна давать nil, получено %v, %v", p, err)
	}
	if _, err := ParseEndDate("31/03/2024"); err == nil {
		t.Error("ожидалась ошибка для неверного формата")
	}
}
