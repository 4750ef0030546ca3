package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/okian/scorecard/internal/domain/dates"
	"github.com/okian/scorecard/internal/domain/model"
	"github.com/okian/scorecard/internal/domain/period"
	"github.com/okian/scorecard/internal/domain/task"
)

// Query selects the window a scorecard is computed over. From and To are
// raw dates as sent by clients; Limit of zero means no limit.
type Query struct {
	Filter string
	From   string
	To     string
	Limit  int
}

// window is a resolved Query.
type window struct {
	Mode  period.Mode
	Range dates.Range
}

// resolve turns q into a concrete mode and range as seen at now. A till-date
// query without a start begins at the earliest date in snap.
func (s *Service) resolve(q Query, snap model.Snapshot, now time.Time) (window, error) {
	mode := s.defaultMode
	if strings.TrimSpace(q.Filter) != "" {
		m, err := period.ParseMode(q.Filter)
		if err != nil {
			return window{}, fmt.Errorf("%w: %w", ErrBadRequest, err)
		}
		mode = m
	}

	parse := dates.ParseDateString(s.loc)
	from, err := parseBound(parse, "from", q.From)
	if err != nil {
		return window{}, err
	}
	to, err := parseBound(parse, "to", q.To)
	if err != nil {
		return window{}, err
	}
	if mode == period.TillDate && from.IsZero() {
		from = earliest(snap, dates.ParseSheetDate(s.loc))
		if from.IsZero() {
			from = now
		}
	}

	rng, err := period.Resolve(mode, now, from, to)
	if err != nil {
		if errors.Is(err, period.ErrInvalidRange) || errors.Is(err, period.ErrUnknownMode) {
			return window{}, fmt.Errorf("%w: %w", ErrBadRequest, err)
		}
		return window{}, err
	}
	return window{Mode: mode, Range: rng}, nil
}

func parseBound(parse dates.Parser, name, raw string) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return time.Time{}, nil
	}
	t, ok := parse(raw)
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %s %q is not a date", ErrBadRequest, name, raw)
	}
	return t, nil
}

// earliest finds the earliest parsable date anywhere in snap.
func earliest(snap model.Snapshot, parse dates.Parser) time.Time {
	var first time.Time
	see := func(raw string) {
		t, ok := parse(raw)
		if ok && (first.IsZero() || t.Before(first)) {
			first = t
		}
	}
	for _, d := range snap.Delegations {
		see(d.DueDate)
		see(d.UpdatedAt)
	}
	for _, c := range snap.Checklists {
		see(c.DueDate)
		see(c.UpdatedAt)
	}
	for _, o := range snap.Orders {
		for _, item := range o.Items {
			idx := task.IndexKeys(item)
			for _, step := range idx.Steps() {
				see(idx.Planned(step))
				see(idx.Actual(step))
			}
		}
	}
	return first
}

// limit clamps n to the configured maximum; zero means the maximum.
func (s *Service) limit(n int) (int, error) {
	switch {
	case n < 0:
		return 0, fmt.Errorf("%w: limit must not be negative", ErrBadRequest)
	case n == 0 || n > s.maxLimit:
		return s.maxLimit, nil
	}
	return n, nil
}
