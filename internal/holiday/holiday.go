// Package holiday answers "is this a working day" for the assignment
// engine: regional public holidays, global company holidays and member
// PTO, backed by the holidays table with built-in calendars as fallback.
package holiday

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/us"

	"github.com/ticketwise-io/ticketwise/internal/clock"
)

const lookupCacheTTL = 24 * time.Hour

type dayEntry struct {
	Regional bool
	Global   bool
}

// Service resolves holiday state per (region, date). Lookups hit an
// in-memory cache first, then redis when configured, then the holidays
// table, then the built-in business calendars.
type Service struct {
	db     *sqlx.DB
	rdb    *redis.Client
	clock  clock.Clock
	logger *log.Logger

	mu        sync.RWMutex
	cacheDay  string
	cache     map[string]dayEntry
	calendars map[string]*cal.BusinessCalendar
	global    *cal.BusinessCalendar
}

// NewService creates a holiday service. db and rdb may be nil; lookups
// then answer from the built-in calendars alone.
func NewService(db *sqlx.DB, rdb *redis.Client, clk clock.Clock, logger *log.Logger) *Service {
	if clk == nil {
		clk = clock.SystemClock{}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Service{
		db:        db,
		rdb:       rdb,
		clock:     clk,
		logger:    logger,
		cache:     make(map[string]dayEntry),
		calendars: defaultCalendars(),
		global:    defaultGlobalCalendar(),
	}
}

// Lookup reports whether date is a regional public holiday for the given
// region code ("US", "IN") and whether it is a global company holiday.
func (s *Service) Lookup(ctx context.Context, region string, date time.Time) (regional, global bool, err error) {
	day := date.UTC().Format("2006-01-02")
	key := region + "/" + day

	today := s.clock.Now().UTC().Format("2006-01-02")
	s.mu.Lock()
	if s.cacheDay != today {
		// The answers change at midnight; start over.
		s.cache = make(map[string]dayEntry)
		s.cacheDay = today
	}
	if e, ok := s.cache[key]; ok {
		s.mu.Unlock()
		return e.Regional, e.Global, nil
	}
	s.mu.Unlock()

	if e, ok := s.redisGet(ctx, key); ok {
		s.store(key, e)
		return e.Regional, e.Global, nil
	}

	e, found, err := s.dbLookup(ctx, region, day)
	if err != nil {
		return false, false, err
	}
	if !found {
		e = s.calendarLookup(region, date)
	}

	s.store(key, e)
	s.redisSet(ctx, key, e)
	return e.Regional, e.Global, nil
}

// FlushCache drops the in-memory lookup cache. The sweeper calls this
// nightly alongside the day rollover.
func (s *Service) FlushCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = make(map[string]dayEntry)
	s.cacheDay = ""
}

func (s *Service) store(key string, e dayEntry) {
	s.mu.Lock()
	s.cache[key] = e
	s.mu.Unlock()
}

func (s *Service) dbLookup(ctx context.Context, region, day string) (dayEntry, bool, error) {
	if s.db == nil {
		return dayEntry{}, false, nil
	}

	var rows []struct {
		Region   string `db:"region"`
		IsGlobal bool   `db:"is_global"`
	}
	err := s.db.SelectContext(ctx, &rows, `
		SELECT region, is_global
		FROM holidays
		WHERE holiday_date = $1 AND (region = $2 OR is_global = TRUE)`,
		day, region)
	if err != nil {
		return dayEntry{}, false, fmt.Errorf("failed to query holidays: %w", err)
	}
	if len(rows) == 0 {
		return dayEntry{}, false, nil
	}

	var e dayEntry
	for _, r := range rows {
		if r.IsGlobal {
			e.Global = true
		}
		if r.Region == region && !r.IsGlobal {
			e.Regional = true
		}
	}
	return e, true, nil
}

func (s *Service) calendarLookup(region string, date time.Time) dayEntry {
	var e dayEntry
	if c, ok := s.calendars[region]; ok {
		actual, observed, _ := c.IsHoliday(date)
		e.Regional = actual || observed
	}
	actual, observed, _ := s.global.IsHoliday(date)
	e.Global = actual || observed
	return e
}

func (s *Service) redisGet(ctx context.Context, key string) (dayEntry, bool) {
	if s.rdb == nil {
		return dayEntry{}, false
	}
	val, err := s.rdb.Get(ctx, "holiday:"+key).Result()
	if err != nil {
		return dayEntry{}, false
	}
	switch val {
	case "rg":
		return dayEntry{Regional: true, Global: true}, true
	case "r":
		return dayEntry{Regional: true}, true
	case "g":
		return dayEntry{Global: true}, true
	case "-":
		return dayEntry{}, true
	}
	return dayEntry{}, false
}

func (s *Service) redisSet(ctx context.Context, key string, e dayEntry) {
	if s.rdb == nil {
		return
	}
	val := "-"
	switch {
	case e.Regional && e.Global:
		val = "rg"
	case e.Regional:
		val = "r"
	case e.Global:
		val = "g"
	}
	if err := s.rdb.Set(ctx, "holiday:"+key, val, lookupCacheTTL).Err(); err != nil {
		s.logger.Printf("holiday cache write failed for %s: %v", key, err)
	}
}

// defaultCalendars builds the regional fallback calendars used when the
// holidays table has no row for a date.
func defaultCalendars() map[string]*cal.BusinessCalendar {
	usCal := cal.NewBusinessCalendar()
	usCal.AddHoliday(us.Holidays...)

	inCal := cal.NewBusinessCalendar()
	inCal.AddHoliday(indiaHolidays()...)

	return map[string]*cal.BusinessCalendar{
		"US": usCal,
		"IN": inCal,
	}
}

func defaultGlobalCalendar() *cal.BusinessCalendar {
	c := cal.NewBusinessCalendar()
	c.AddHoliday(
		&cal.Holiday{Name: "New Year's Day", Type: cal.ObservancePublic, Month: time.January, Day: 1, Func: cal.CalcDayOfMonth},
		&cal.Holiday{Name: "Christmas Day", Type: cal.ObservancePublic, Month: time.December, Day: 25, Func: cal.CalcDayOfMonth},
	)
	return c
}

// indiaHolidays covers the national gazetted days; regional observances
// come from the seed file or the holidays table.
func indiaHolidays() []*cal.Holiday {
	return []*cal.Holiday{
		{Name: "Republic Day", Type: cal.ObservancePublic, Month: time.January, Day: 26, Func: cal.CalcDayOfMonth},
		{Name: "Independence Day", Type: cal.ObservancePublic, Month: time.August, Day: 15, Func: cal.CalcDayOfMonth},
		{Name: "Gandhi Jayanti", Type: cal.ObservancePublic, Month: time.October, Day: 2, Func: cal.CalcDayOfMonth},
	}
}
