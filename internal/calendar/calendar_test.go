package calendar

import (
	"testing"
	"time"

	"github.com/julianstephens/clinichat/internal/config"
)

func date(t *testing.T, iso string) time.Time {
	t.Helper()
	d, err := ParseDate(iso)
	if err != nil {
		t.Fatalf("ParseDate(%q): %v", iso, err)
	}
	return d
}

func schedule(slotMinutes int, holidays ...string) config.Schedule {
	s := config.Default().Schedule
	s.SlotMinutes = slotMinutes
	s.Holidays = holidays
	return s
}

func TestIsNonWorkingDay(t *testing.T) {
	sched := schedule(30, "2025-03-04")
	tests := []struct {
		iso  string
		want bool
	}{
		{"2025-03-01", false}, // Saturday
		{"2025-03-02", true},  // Sunday
		{"2025-03-03", false}, // Monday
		{"2025-03-04", true},  // holiday
	}

	for _, tt := range tests {
		t.Run(tt.iso, func(t *testing.T) {
			if got := IsNonWorkingDay(date(t, tt.iso), sched); got != tt.want {
				t.Errorf("IsNonWorkingDay(%s) = %v, want %v", tt.iso, got, tt.want)
			}
		})
	}
}

func TestSlotsForDate(t *testing.T) {
	tests := []struct {
		name      string
		iso       string
		sched     config.Schedule
		wantCount int
		wantFirst string
		wantLast  string
	}{
		{"weekday hourly", "2025-03-04", schedule(60), 10, "09:00 - 10:00", "18:00 - 19:00"},
		{"weekday half hour", "2025-03-04", schedule(30), 20, "09:00 - 09:30", "18:30 - 19:00"},
		{"saturday template", "2025-03-01", schedule(30), 8, "08:00 - 08:30", "11:30 - 12:00"},
		{"uneven window overruns closing", "2025-03-04", schedule(45), 14, "09:00 - 09:45", "18:45 - 19:30"},
		{"sunday", "2025-03-02", schedule(30), 0, "", ""},
		{"holiday", "2025-03-04", schedule(30, "2025-03-04"), 0, "", ""},
		{"non-positive length", "2025-03-04", schedule(0), 0, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slots := SlotsForDate(date(t, tt.iso), tt.sched)
			if len(slots) != tt.wantCount {
				t.Fatalf("got %d slots, want %d: %v", len(slots), tt.wantCount, slots)
			}
			if tt.wantCount == 0 {
				return
			}
			if got := slots[0].String(); got != tt.wantFirst {
				t.Errorf("first slot = %q, want %q", got, tt.wantFirst)
			}
			if got := slots[len(slots)-1].String(); got != tt.wantLast {
				t.Errorf("last slot = %q, want %q", got, tt.wantLast)
			}
		})
	}
}

func TestSlotsAreContiguousAndOrdered(t *testing.T) {
	for _, minutes := range []int{5, 15, 20, 25, 30, 45, 50, 60, 90, 120, 600} {
		for _, iso := range []string{"2025-03-01", "2025-03-05"} {
			slots := SlotsForDate(date(t, iso), schedule(minutes))
			if len(slots) == 0 {
				t.Fatalf("no slots for %s with %d minutes", iso, minutes)
			}
			for i := 1; i < len(slots); i++ {
				if slots[i].Start != slots[i-1].End {
					t.Errorf("%d min on %s: slot %d starts %s, previous ends %s",
						minutes, iso, i, slots[i].Start, slots[i-1].End)
				}
				if slots[i].Start <= slots[i-1].Start {
					t.Errorf("%d min on %s: slots out of order at %d", minutes, iso, i)
				}
			}
		}
	}
}

func TestNextBusinessDays(t *testing.T) {
	start := date(t, "2025-03-01").Add(15 * time.Hour) // Saturday afternoon

	days := NextBusinessDays(start, 3, schedule(30), "en")
	want := []struct{ iso, label string }{
		{"2025-03-01", "Sat 01/03"},
		{"2025-03-03", "Mon 03/03"},
		{"2025-03-04", "Tue 04/03"},
	}
	if len(days) != len(want) {
		t.Fatalf("got %d days, want %d", len(days), len(want))
	}
	for i, w := range want {
		if days[i].ISO != w.iso || days[i].Label != w.label {
			t.Errorf("day %d = {%s %s}, want {%s %s}", i, days[i].ISO, days[i].Label, w.iso, w.label)
		}
	}

	pt := NextBusinessDays(start, 1, schedule(30), "pt")
	if pt[0].Label != "Sáb 01/03" {
		t.Errorf("pt label = %q, want %q", pt[0].Label, "Sáb 01/03")
	}
}

func TestNextBusinessDaysScanLimit(t *testing.T) {
	start := date(t, "2025-03-01")

	// 40 calendar days from 2025-03-01 contain six Sundays.
	days := NextBusinessDays(start, 100, schedule(30), "en")
	if len(days) != 34 {
		t.Errorf("got %d days, want 34", len(days))
	}

	var holidays []string
	for i := 0; i < 40; i++ {
		holidays = append(holidays, start.AddDate(0, 0, i).Format("2006-01-02"))
	}
	if days := NextBusinessDays(start, 5, schedule(30, holidays...), "en"); len(days) != 0 {
		t.Errorf("got %d days with every day a holiday, want 0", len(days))
	}
}

func TestParseSlot(t *testing.T) {
	tests := []struct {
		in      string
		want    Slot
		wantErr bool
	}{
		{"10:00 - 11:00", Slot{"10:00", "11:00"}, false},
		{"10:00-11:00", Slot{"10:00", "11:00"}, false},
		{"9:00 - 10:00", Slot{}, true},
		{"10:00", Slot{}, true},
		{"ab:cd - 11:00", Slot{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSlot(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseSlot(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseSlot(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseDateRejectsLooseFormats(t *testing.T) {
	for _, in := range []string{"2025-3-4", "04/03/2025", "2025-02-30", "tomorrow", ""} {
		if _, err := ParseDate(in); err == nil {
			t.Errorf("ParseDate(%q) succeeded, want error", in)
		}
	}
}
