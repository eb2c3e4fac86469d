package holiday

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rickar/cal/v2"
	"gopkg.in/yaml.v3"
)

// SeedDay is one holiday in the seed file: either a recurring month/day
// pair or a one-time date (YYYY-MM-DD).
type SeedDay struct {
	Name  string `yaml:"name"`
	Month int    `yaml:"month,omitempty"`
	Day   int    `yaml:"day,omitempty"`
	Date  string `yaml:"date,omitempty"`
}

// Seed is the holidays.yaml layout: per-region days plus company-wide
// global days.
type Seed struct {
	Regions map[string][]SeedDay `yaml:"regions"`
	Global  []SeedDay            `yaml:"global"`
}

// LoadSeed reads and parses a holidays.yaml file.
func LoadSeed(path string) (*Seed, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	return ParseSeed(raw)
}

// ParseSeed parses seed YAML and validates every entry.
func ParseSeed(raw []byte) (*Seed, error) {
	var seed Seed
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed yaml: %w", err)
	}

	for region, days := range seed.Regions {
		for _, d := range days {
			if err := d.validate(); err != nil {
				return nil, fmt.Errorf("region %s: %w", region, err)
			}
		}
	}
	for _, d := range seed.Global {
		if err := d.validate(); err != nil {
			return nil, fmt.Errorf("global: %w", err)
		}
	}
	return &seed, nil
}

func (d SeedDay) validate() error {
	if d.Name == "" {
		return fmt.Errorf("holiday entry missing name")
	}
	if d.Date != "" {
		if _, err := time.Parse("2006-01-02", d.Date); err != nil {
			return fmt.Errorf("holiday %q has bad date %q: %w", d.Name, d.Date, err)
		}
		return nil
	}
	if d.Month < 1 || d.Month > 12 || d.Day < 1 || d.Day > 31 {
		return fmt.Errorf("holiday %q has bad month/day %d/%d", d.Name, d.Month, d.Day)
	}
	return nil
}

func (d SeedDay) holiday() *cal.Holiday {
	if d.Date != "" {
		t, _ := time.Parse("2006-01-02", d.Date)
		return &cal.Holiday{
			Name:      d.Name,
			Type:      cal.ObservancePublic,
			Month:     t.Month(),
			Day:       t.Day(),
			Func:      cal.CalcDayOfMonth,
			StartYear: t.Year(),
			EndYear:   t.Year(),
		}
	}
	return &cal.Holiday{
		Name:  d.Name,
		Type:  cal.ObservancePublic,
		Month: time.Month(d.Month),
		Day:   d.Day,
		Func:  cal.CalcDayOfMonth,
	}
}

// ApplySeed folds seed entries into the fallback calendars, creating
// region calendars as needed.
func (s *Service) ApplySeed(seed *Seed) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for region, days := range seed.Regions {
		c, ok := s.calendars[region]
		if !ok {
			c = cal.NewBusinessCalendar()
			s.calendars[region] = c
		}
		for _, d := range days {
			c.AddHoliday(d.holiday())
		}
	}
	for _, d := range seed.Global {
		s.global.AddHoliday(d.holiday())
	}
	s.cache = make(map[string]dayEntry)
}

// SeedDB materializes seed entries into the holidays table for the given
// year so lookups stop depending on the in-process calendars.
func SeedDB(ctx context.Context, db *sqlx.DB, seed *Seed, year int) (int, error) {
	inserted := 0

	insert := func(region string, d SeedDay, global bool) error {
		day := d.Date
		if day == "" {
			day = fmt.Sprintf("%04d-%02d-%02d", year, d.Month, d.Day)
		}
		_, err := db.ExecContext(ctx, `
			INSERT INTO holidays (region, holiday_date, name, is_global)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (region, holiday_date) DO UPDATE SET name = EXCLUDED.name, is_global = EXCLUDED.is_global`,
			region, day, d.Name, global)
		if err != nil {
			return fmt.Errorf("failed to insert holiday %q: %w", d.Name, err)
		}
		inserted++
		return nil
	}

	for region, days := range seed.Regions {
		for _, d := range days {
			if err := insert(region, d, false); err != nil {
				return inserted, err
			}
		}
	}
	for _, d := range seed.Global {
		if err := insert("GLOBAL", d, true); err != nil {
			return inserted, err
		}
	}
	return inserted, nil
}
