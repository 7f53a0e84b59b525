package memory

import (
	"fmt"
	"io"
	"os"

	"hiretrack/internal/store"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

type seedJob struct {
	ID             string `yaml:"id"`
	Title          string `yaml:"title"`
	Description    string `yaml:"description"`
	Company        string `yaml:"company"`
	Department     string `yaml:"department"`
	Location       string `yaml:"location"`
	EmploymentType string `yaml:"employment_type"`
	Status         string `yaml:"status"`
	Remote         bool   `yaml:"remote"`
}

type seedFile struct {
	Jobs []seedJob `yaml:"jobs"`
}

// LoadJobsFile seeds job postings from a YAML file.
func (s *Store) LoadJobsFile(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return s.LoadJobs(f)
}

// LoadJobs seeds job postings from YAML of the form:
//
//	jobs:
//	  - id: 5b0c...
//	    title: Backend Engineer
//	    company: Acme
//	    location: Berlin
//	    employment_type: full-time
func (s *Store) LoadJobs(r io.Reader) (int, error) {
	var file seedFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		return 0, fmt.Errorf("failed to decode job seed: %w", err)
	}

	for i, sj := range file.Jobs {
		id := uuid.New()
		if sj.ID != "" {
			parsed, err := uuid.Parse(sj.ID)
			if err != nil {
				return i, fmt.Errorf("job %d: invalid id: %w", i, err)
			}
			id = parsed
		}

		employment := store.EmploymentType(sj.EmploymentType)
		if employment == "" {
			employment = store.EmploymentFullTime
		}
		status := store.JobStatus(sj.Status)
		if status == "" {
			status = store.JobStatusPublished
		}

		s.AddJob(store.Job{
			ID:             id,
			Title:          sj.Title,
			Description:    sj.Description,
			Company:        sj.Company,
			Department:     sj.Department,
			Location:       sj.Location,
			EmploymentType: employment,
			Status:         status,
			Remote:         sj.Remote,
		})
	}
	return len(file.Jobs), nil
}
