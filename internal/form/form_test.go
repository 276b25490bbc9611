package form

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dkeye/recruit/internal/domain"
)

var testRoles = []domain.RoleQuota{{Name: "Tank", Capacity: 2}, {Name: "Healer", Capacity: 2}, {Name: "DPS", Capacity: 4}}

func validFields() map[string]string {
	return map[string]string{
		FieldTitle:           "Savage prog",
		FieldDateTime:        "1201 21:00",
		QuotaField("Tank"):   "1",
		QuotaField("Healer"): "2",
		QuotaField("DPS"):    "4",
	}
}

func TestCollect(t *testing.T) {
	c := Collector{Roles: testRoles}

	got, err := c.Collect("host", validFields(), true)
	if err != nil {
		t.Fatalf("Collect: unexpected error: %v", err)
	}
	want := domain.SessionRequest{
		Host:     "host",
		Title:    "Savage prog",
		Date:     "1201",
		Time:     "21:00",
		Roles:    []domain.RoleQuota{{Name: "Tank", Capacity: 1}, {Name: "Healer", Capacity: 2}, {Name: "DPS", Capacity: 4}},
		WithRoom: true,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("request mismatch (-want +got):\n%s", diff)
	}
}

func TestCollectRejects(t *testing.T) {
	tests := []struct {
		name    string
		field   string
		value   string
		wantErr error
	}{
		{"missing title", FieldTitle, "   ", ErrTitleMissing},
		{"long title", FieldTitle, strings.Repeat("a", domain.MaxTitleLen+1), domain.ErrTitleTooLong},
		{"short datetime", FieldDateTime, "12", ErrDateTimeLength},
		{"long datetime", FieldDateTime, strings.Repeat("1", 21), ErrDateTimeLength},
		{"non numeric quota", QuotaField("Tank"), "two", ErrQuotaNotNumber},
		{"empty quota", QuotaField("DPS"), "", ErrQuotaNotNumber},
		{"signed quota", QuotaField("Healer"), "-1", ErrQuotaNotNumber},
		{"huge quota", QuotaField("Healer"), "100", ErrQuotaOutOfRange},
	}

	c := Collector{Roles: testRoles}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := validFields()
			fields[tt.field] = tt.value
			_, err := c.Collect("host", fields, false)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Collect err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSplitDateTime(t *testing.T) {
	tests := []struct {
		raw      string
		wantDate string
		wantTime string
	}{
		{"1201 21:00", "1201", "21:00"},
		{"  20231201   21:00 ", "20231201", "21:00"},
		{"20231201", "20231201", ""},
		{"Sat 9pm JST", "Sat", "9pm"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			date, clock, err := splitDateTime(tt.raw)
			if err != nil {
				t.Fatalf("splitDateTime(%q): unexpected error: %v", tt.raw, err)
			}
			if date != tt.wantDate || clock != tt.wantTime {
				t.Fatalf("splitDateTime(%q) = (%q, %q), want (%q, %q)", tt.raw, date, clock, tt.wantDate, tt.wantTime)
			}
		})
	}
}

func TestZeroQuotaAccepted(t *testing.T) {
	fields := validFields()
	fields[QuotaField("Tank")] = "0"
	req, err := Collector{Roles: testRoles}.Collect("host", fields, false)
	if err != nil {
		t.Fatalf("Collect: unexpected error: %v", err)
	}
	if req.Roles[0].Capacity != 0 {
		t.Fatalf("Tank capacity = %d, want 0", req.Roles[0].Capacity)
	}
}

func TestFields(t *testing.T) {
	fields := Collector{Roles: testRoles}.Fields()
	if len(fields) != 5 {
		t.Fatalf("expected 5 fields, got %d", len(fields))
	}
	if fields[2].ID != "quota_tank" || fields[2].Default != "2" {
		t.Fatalf("Tank field = %+v", fields[2])
	}
	if fields[4].ID != "quota_dps" || fields[4].Default != "4" {
		t.Fatalf("DPS field = %+v", fields[4])
	}
}
