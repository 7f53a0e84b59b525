package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"hiretrack/internal/store"
)

func (s *Store) CountApplicationsByStatus(_ context.Context) ([]store.StatusCount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := make(map[store.Status]int64)
	for _, app := range s.applications {
		counts[app.Status]++
	}

	out := make([]store.StatusCount, 0, len(counts))
	for st, n := range counts {
		out = append(out, store.StatusCount{Status: st, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Status < out[j].Status })
	return out, nil
}

func (s *Store) CountApplicationsPerDay(_ context.Context, from, to time.Time) ([]store.DayCount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := make(map[time.Time]int64)
	for _, app := range s.applications {
		if app.CreatedAt.Before(from) || !app.CreatedAt.Before(to) {
			continue
		}
		counts[truncateDay(app.CreatedAt)]++
	}

	out := make([]store.DayCount, 0, len(counts))
	for day, n := range counts {
		out = append(out, store.DayCount{Day: day, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day.Before(out[j].Day) })
	return out, nil
}

func (s *Store) CountJobsBy(_ context.Context, dim store.JobDimension) ([]store.GroupCount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var keyOf func(store.Job) string
	switch dim {
	case store.DimensionDepartment:
		keyOf = func(job store.Job) string { return job.Department }
	case store.DimensionLocation:
		keyOf = func(job store.Job) string { return job.Location }
	case store.DimensionEmploymentType:
		keyOf = func(job store.Job) string { return string(job.EmploymentType) }
	default:
		return nil, fmt.Errorf("unknown job dimension %q", dim)
	}

	perJob := make(map[string]int64)
	for _, app := range s.applications {
		if job, ok := s.jobs[app.JobID]; ok {
			perJob[keyOf(job)]++
		}
	}

	groups := make(map[string]*store.GroupCount)
	for _, job := range s.jobs {
		key := keyOf(job)
		g, ok := groups[key]
		if !ok {
			g = &store.GroupCount{Key: key, Applications: perJob[key]}
			groups[key] = g
		}
		g.Jobs++
	}

	out := make([]store.GroupCount, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (s *Store) CountJobs(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.jobs)), nil
}

func (s *Store) RecentApplications(ctx context.Context, limit int) ([]store.Application, error) {
	return s.ListApplications(ctx, store.ApplicationFilter{Limit: limit})
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
