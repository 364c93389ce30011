package workflow

import (
	"context"
	"sort"

	"cwp_reporting/src/entity"
	"cwp_reporting/src/model"
)

// WorksiteRecord is one row of the worksite export
type WorksiteRecord struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Address     string           `json:"address,omitempty"`
	Description string           `json:"description,omitempty"`
	Properties  model.Properties `json:"properties"`
}

// DownloadWorksites lists every worksite sorted by name.
func (s *Service) DownloadWorksites(ctx context.Context) (records []WorksiteRecord, err error) {
	done := s.track(ctx, "download_worksites")
	defer func() { done(err) }()

	worksites, err := s.entities(ctx, entity.Worksite)
	if err != nil {
		return nil, err
	}

	records = make([]WorksiteRecord, 0, len(worksites))
	for _, w := range worksites {
		records = append(records, WorksiteRecord{
			ID:          w.ID,
			Name:        w.Properties.FirstString(entity.FQNName),
			Address:     w.Properties.FirstString(entity.FQNWorksiteAddress),
			Description: w.Properties.FirstString(entity.FQNDescription),
			Properties:  w.Properties.Clone(),
		})
	}
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Name != records[j].Name {
			return records[i].Name < records[j].Name
		}
		return records[i].ID < records[j].ID
	})
	return records, nil
}
