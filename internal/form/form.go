// Package form turns raw creation-form input into a validated session request.
package form

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/dkeye/recruit/internal/core"
	"github.com/dkeye/recruit/internal/domain"
)

const (
	Title = "Recruitment settings"

	FieldTitle    = "title"
	FieldDateTime = "datetime"

	minDateTimeLen = 5
	maxDateTimeLen = 20
	maxQuotaLen    = 2
)

var (
	ErrTitleMissing    = errors.New("title is required")
	ErrDateTimeLength  = fmt.Errorf("date/time must be %d-%d characters", minDateTimeLen, maxDateTimeLen)
	ErrQuotaNotNumber  = errors.New("quota must be a number")
	ErrQuotaOutOfRange = fmt.Errorf("quota must be between 0 and %d", domain.MaxQuota)
)

// QuotaField returns the input id of a role's quota.
func QuotaField(role string) string {
	return "quota_" + strings.ToLower(role)
}

// Collector knows the configured roles and their default quotas.
type Collector struct {
	Roles []domain.RoleQuota
}

// Fields describes the form inputs in display order.
func (c Collector) Fields() []core.FormField {
	fields := []core.FormField{
		{ID: FieldTitle, Label: "Title", Placeholder: "Savage floor 1 practice", MinLength: 1, MaxLength: domain.MaxTitleLen},
		{ID: FieldDateTime, Label: "Date/Time (e.g. 1201 21:00)", Placeholder: "20231201 21:00", MinLength: minDateTimeLen, MaxLength: maxDateTimeLen},
	}
	for _, r := range c.Roles {
		def := strconv.Itoa(r.Capacity)
		fields = append(fields, core.FormField{
			ID:          QuotaField(r.Name),
			Label:       r.Name + " slots",
			Placeholder: def,
			Default:     def,
			MinLength:   1,
			MaxLength:   maxQuotaLen,
		})
	}
	return fields
}

// Collect validates submitted fields into a request.
func (c Collector) Collect(host domain.UserID, fields map[string]string, withRoom bool) (domain.SessionRequest, error) {
	title := strings.TrimSpace(fields[FieldTitle])
	if title == "" {
		return domain.SessionRequest{}, ErrTitleMissing
	}
	if utf8.RuneCountInString(title) > domain.MaxTitleLen {
		return domain.SessionRequest{}, domain.ErrTitleTooLong
	}

	date, clock, err := splitDateTime(fields[FieldDateTime])
	if err != nil {
		return domain.SessionRequest{}, err
	}

	roles := make([]domain.RoleQuota, 0, len(c.Roles))
	for _, r := range c.Roles {
		raw := strings.TrimSpace(fields[QuotaField(r.Name)])
		n, err := strconv.Atoi(raw)
		if err != nil || strings.ContainsAny(raw, "+-") {
			return domain.SessionRequest{}, fmt.Errorf("%s: %w", r.Name, ErrQuotaNotNumber)
		}
		if n < 0 || n > domain.MaxQuota {
			return domain.SessionRequest{}, fmt.Errorf("%s: %w", r.Name, ErrQuotaOutOfRange)
		}
		roles = append(roles, domain.RoleQuota{Name: r.Name, Capacity: n})
	}

	req := domain.SessionRequest{
		Host:     host,
		Title:    title,
		Date:     date,
		Time:     clock,
		Roles:    roles,
		WithRoom: withRoom,
	}
	if err := req.Validate(); err != nil {
		return domain.SessionRequest{}, err
	}
	return req, nil
}

// splitDateTime splits on whitespace; a single token is the date.
func splitDateTime(raw string) (string, string, error) {
	raw = strings.TrimSpace(raw)
	if n := utf8.RuneCountInString(raw); n < minDateTimeLen || n > maxDateTimeLen {
		return "", "", ErrDateTimeLength
	}
	parts := strings.Fields(raw)
	if len(parts) >= 2 {
		return parts[0], parts[1], nil
	}
	return raw, "", nil
}
