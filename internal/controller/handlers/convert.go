package handlers

import (
	"hiretrack/internal/analytics"
	"hiretrack/internal/pipeline"
	"hiretrack/internal/store"
	"hiretrack/pkg/api"
)

func toApplication(a store.Application) api.Application {
	return api.Application{
		ID:          a.ID.String(),
		JobID:       a.JobID.String(),
		ApplicantID: a.ApplicantID.String(),
		ResumeID:    a.ResumeID.String(),
		Status:      string(a.Status),
		Rating:      a.Rating,
		Comments:    a.Comments,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

func toApplicationView(v pipeline.ApplicationView) api.Application {
	out := toApplication(v.Application)
	if v.Job != nil {
		out.Job = &api.JobSummary{
			ID:       v.Job.ID.String(),
			Title:    v.Job.Title,
			Company:  v.Job.Company,
			Location: v.Job.Location,
		}
	}
	return out
}

func toJob(j store.Job) api.Job {
	return api.Job{
		ID:             j.ID.String(),
		Title:          j.Title,
		Description:    j.Description,
		Company:        j.Company,
		Department:     j.Department,
		Location:       j.Location,
		EmploymentType: string(j.EmploymentType),
		Status:         string(j.Status),
		Remote:         j.Remote,
		CreatedAt:      j.CreatedAt,
	}
}

func toSearch(res *pipeline.SearchResult) api.SearchResponse {
	out := api.SearchResponse{
		Query:  res.Query,
		Type:   string(res.Type),
		Limit:  res.Limit,
		Offset: res.Offset,
	}
	if res.Jobs != nil {
		out.Jobs = make([]api.Job, 0, len(res.Jobs))
		for _, j := range res.Jobs {
			out.Jobs = append(out.Jobs, toJob(j))
		}
	}
	if res.Applications != nil {
		out.Applications = toApplicationViews(res.Applications)
	}
	return out
}

func toApplicationViews(views []pipeline.ApplicationView) []api.Application {
	out := make([]api.Application, 0, len(views))
	for _, v := range views {
		out = append(out, toApplicationView(v))
	}
	return out
}

func toLedgerEntry(e store.LedgerEntry) api.LedgerEntry {
	out := api.LedgerEntry{
		ID:            e.ID,
		ApplicationID: e.ApplicationID.String(),
		Status:        string(e.Status),
		Note:          e.Note,
		Timestamp:     e.RecordedAt,
	}
	if e.UpdatedBy != nil {
		by := e.UpdatedBy.String()
		out.UpdatedBy = &by
	}
	return out
}

func toLedgerEntries(entries []store.LedgerEntry) []api.LedgerEntry {
	out := make([]api.LedgerEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, toLedgerEntry(e))
	}
	return out
}

func toTransition(res *pipeline.TransitionResult) api.TransitionResponse {
	return api.TransitionResponse{
		Application: toApplication(*res.Application),
		LedgerEntry: toLedgerEntry(*res.Entry),
	}
}

func toDistribution(d analytics.Distribution) api.StatusDistribution {
	out := api.StatusDistribution{Statuses: make([]api.StatusCount, 0, len(d.Statuses)), Total: d.Total}
	for _, b := range d.Statuses {
		out.Statuses = append(out.Statuses, api.StatusCount{Status: string(b.Status), Count: b.Count})
	}
	return out
}

func toTrend(days []analytics.DailyCount) []api.DailyCount {
	out := make([]api.DailyCount, 0, len(days))
	for _, d := range days {
		out = append(out, api.DailyCount{Date: d.Date, Count: d.Count})
	}
	return out
}

func toBuckets(buckets []analytics.Bucket) []api.Bucket {
	out := make([]api.Bucket, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, api.Bucket{Key: b.Key, Jobs: b.Jobs, Applications: b.Applications})
	}
	return out
}

func toBreakdown(b analytics.Breakdown) api.JobBreakdown {
	return api.JobBreakdown{
		ByDepartment:     toBuckets(b.ByDepartment),
		ByLocation:       toBuckets(b.ByLocation),
		ByEmploymentType: toBuckets(b.ByEmploymentType),
	}
}

func toResume(r store.Resume) api.ResumeResponse {
	out := api.ResumeResponse{
		ID:          r.ID.String(),
		OwnerID:     r.OwnerID.String(),
		Filename:    r.Filename,
		ContentType: r.ContentType,
		ParseState:  string(r.ParseState),
		CreatedAt:   r.CreatedAt,
	}
	if r.Parsed != nil {
		out.Parsed = &api.ParsedResume{Skills: r.Parsed.Skills, Education: r.Parsed.Education}
	}
	return out
}
