package typemap

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

const timestampLayout = "2006-01-02 15:04:05.000000"

var (
	timeType     = reflect.TypeOf(time.Time{})
	durationType = reflect.TypeOf(time.Duration(0))
)

// TimeMapping maps time.Time to datetime(6). Values are truncated to
// microseconds and rendered in their own location.
type TimeMapping struct{}

// StoreType implements Mapping.
func (TimeMapping) StoreType() string { return "datetime(6)" }

// GoType implements Mapping.
func (TimeMapping) GoType() reflect.Type { return timeType }

// CastType implements Mapping.
func (TimeMapping) CastType() string { return "datetime(6)" }

// Literal implements Mapping.
func (TimeMapping) Literal(v any) string {
	var t time.Time
	switch v := v.(type) {
	case time.Time:
		t = v
	case *time.Time:
		t = *v
	default:
		return fmt.Sprint(v)
	}
	return "TIMESTAMP '" + t.Truncate(time.Microsecond).Format(timestampLayout) + "'"
}

// Parse implements Mapping. The result is in UTC.
func (TimeMapping) Parse(lit string) (any, error) {
	s := strings.TrimSpace(lit)
	if len(s) > len("TIMESTAMP") && strings.EqualFold(s[:len("TIMESTAMP")], "TIMESTAMP") {
		s = strings.TrimSpace(s[len("TIMESTAMP"):])
	}
	s, err := unquote(s, false)
	if err != nil {
		return nil, err
	}
	t, err := time.ParseInLocation("2006-01-02 15:04:05.999999", s, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("typemap: parse timestamp literal: %w", err)
	}
	return t, nil
}

// DurationMapping maps time.Duration to time(6).
type DurationMapping struct{}

// StoreType implements Mapping.
func (DurationMapping) StoreType() string { return "time(6)" }

// GoType implements Mapping.
func (DurationMapping) GoType() reflect.Type { return durationType }

// CastType implements Mapping.
func (DurationMapping) CastType() string { return "time(6)" }

// Literal implements Mapping.
func (DurationMapping) Literal(v any) string {
	rv, err := convert(v, durationType)
	if err != nil {
		return fmt.Sprint(v)
	}
	d := time.Duration(rv.Int()).Truncate(time.Microsecond)
	sign := ""
	if d < 0 {
		sign, d = "-", -d
	}
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second
	d -= s * time.Second
	return fmt.Sprintf("TIME '%s%02d:%02d:%02d.%06d'", sign, h, m, s, d/time.Microsecond)
}

// Parse implements Mapping.
func (DurationMapping) Parse(lit string) (any, error) {
	s := strings.TrimSpace(lit)
	if len(s) > len("TIME") && strings.EqualFold(s[:len("TIME")], "TIME") {
		s = strings.TrimSpace(s[len("TIME"):])
	}
	s, err := unquote(s, false)
	if err != nil {
		return nil, err
	}
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return nil, fmt.Errorf("typemap: invalid time literal %q", lit)
	}
	h, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("typemap: parse time literal: %w", err)
	}
	m, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("typemap: parse time literal: %w", err)
	}
	sec, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return nil, fmt.Errorf("typemap: parse time literal: %w", err)
	}
	d := time.Duration(h)*time.Hour + time.Duration(m)*time.Minute +
		time.Duration(sec*1e6+0.5)*time.Microsecond
	if neg {
		d = -d
	}
	return d, nil
}
