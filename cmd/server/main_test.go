package main

import (
	"testing"
	"time"

	"github.com/eslsoft/vocdrill/internal/entity"
)

func TestCalendarZoneWithoutHostZoneinfo(t *testing.T) {
	t.Setenv("ZONEINFO", t.TempDir())
	cal, err := entity.NewCalendar("Asia/Tokyo")
	if err != nil {
		t.Fatalf("NewCalendar: %v", err)
	}
	day := cal.Day(time.Date(2025, 6, 1, 16, 0, 0, 0, time.UTC))
	if day != "2025-06-02" {
		t.Fatalf("expected 2025-06-02, got %s", day)
	}
}
