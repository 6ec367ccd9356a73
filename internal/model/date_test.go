package model

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("1990-05-01")
	if err != nil {
		t.Fatalf("ParseDate() error = %v", err)
	}
	if d.Year != 1990 || d.Month != time.May || d.Day != 1 {
		t.Errorf("ParseDate() = %+v, want 1990-05-01", d)
	}
}

func TestParseDate_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"garbage", "not-a-date"},
		{"wrong order", "01-05-1990"},
		{"impossible day", "2023-02-31"},
		{"month out of range", "2023-13-01"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseDate(tt.input); err == nil {
				t.Errorf("ParseDate(%q) should have failed", tt.input)
			}
		})
	}
}

func TestDateString(t *testing.T) {
	d := NewDate(1990, time.May, 1)
	if got := d.String(); got != "1990-05-01" {
		t.Errorf("String() = %q, want %q", got, "1990-05-01")
	}
}

func TestSameDayAs_IgnoresYear(t *testing.T) {
	a := NewDate(1990, time.March, 14)
	b := NewDate(2001, time.March, 14)
	if !a.SameDayAs(b) {
		t.Error("dates with equal month+day but different years should match")
	}

	c := NewDate(1990, time.March, 15)
	if a.SameDayAs(c) {
		t.Error("dates with different days should not match")
	}
}

func TestDateJSONRoundTrip(t *testing.T) {
	type payload struct {
		Birthday Date `json:"birthday"`
	}

	in := payload{Birthday: NewDate(1990, time.May, 1)}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(data) != `{"birthday":"1990-05-01"}` {
		t.Errorf("Marshal() = %s", data)
	}

	var out payload
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if out.Birthday != in.Birthday {
		t.Errorf("round trip = %+v, want %+v", out.Birthday, in.Birthday)
	}
}

func TestDateScan(t *testing.T) {
	var d Date
	if err := d.Scan("1985-12-31"); err != nil {
		t.Fatalf("Scan(string) error = %v", err)
	}
	if d != NewDate(1985, time.December, 31) {
		t.Errorf("Scan() = %+v", d)
	}

	if err := d.Scan(42); err == nil {
		t.Error("Scan(int) should have failed")
	}
}

func TestFriendSameEntry(t *testing.T) {
	base := &Friend{Name: "Ann", Birthday: NewDate(1990, time.May, 1)}

	tests := []struct {
		name  string
		other *Friend
		want  bool
	}{
		{"identical", &Friend{Name: "Ann", Birthday: NewDate(1990, time.May, 1)}, true},
		{"different case", &Friend{Name: "ann", Birthday: NewDate(1990, time.May, 1)}, false},
		{"different date", &Friend{Name: "Ann", Birthday: NewDate(1990, time.May, 2)}, false},
		{"different year", &Friend{Name: "Ann", Birthday: NewDate(1991, time.May, 1)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := base.SameEntry(tt.other); got != tt.want {
				t.Errorf("SameEntry() = %v, want %v", got, tt.want)
			}
		})
	}
}
