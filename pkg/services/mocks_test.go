package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/estimateai/plancost-engine/pkg/apperrors"
	"github.com/estimateai/plancost-engine/pkg/models"
	"github.com/estimateai/plancost-engine/pkg/repositories"
)

// In-memory repository fakes shared by service tests.

type fakeProjectRepo struct {
	projects map[uuid.UUID]*models.Project
}

func newFakeProjectRepo() *fakeProjectRepo {
	return &fakeProjectRepo{projects: map[uuid.UUID]*models.Project{}}
}

func (f *fakeProjectRepo) Create(_ context.Context, p *models.Project) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Status == "" {
		p.Status = models.ProjectStatusUploaded
	}
	cp := *p
	f.projects[p.ID] = &cp
	return nil
}

func (f *fakeProjectRepo) Get(_ context.Context, id uuid.UUID) (*models.Project, error) {
	p, ok := f.projects[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProjectRepo) UpdateStatus(_ context.Context, id uuid.UUID, status string) error {
	p, ok := f.projects[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	p.Status = status
	return nil
}

type fakeSelectionRepo struct {
	selections map[uuid.UUID]map[string]models.UserSelection
}

func newFakeSelectionRepo() *fakeSelectionRepo {
	return &fakeSelectionRepo{selections: map[uuid.UUID]map[string]models.UserSelection{}}
}

func (f *fakeSelectionRepo) Upsert(_ context.Context, s *models.UserSelection) error {
	s.UpdatedAt = time.Now()
	byCategory, ok := f.selections[s.ProjectID]
	if !ok {
		byCategory = map[string]models.UserSelection{}
		f.selections[s.ProjectID] = byCategory
	}
	byCategory[s.Category] = *s
	return nil
}

func (f *fakeSelectionRepo) ListByProject(_ context.Context, projectID uuid.UUID) ([]models.UserSelection, error) {
	var out []models.UserSelection
	for _, s := range f.selections[projectID] {
		out = append(out, s)
	}
	return out, nil
}

type fakeMeasurementRepo struct {
	byProject map[uuid.UUID]models.MeasurementSet
}

func newFakeMeasurementRepo() *fakeMeasurementRepo {
	return &fakeMeasurementRepo{byProject: map[uuid.UUID]models.MeasurementSet{}}
}

func (f *fakeMeasurementRepo) GetByProject(_ context.Context, projectID uuid.UUID) (models.MeasurementSet, error) {
	set, ok := f.byProject[projectID]
	if !ok {
		return models.MeasurementSet{}, nil
	}
	return set, nil
}

func (f *fakeMeasurementRepo) UpsertMany(_ context.Context, measurements []models.Measurement) error {
	for _, m := range measurements {
		set, ok := f.byProject[m.ProjectID]
		if !ok {
			set = models.MeasurementSet{}
			f.byProject[m.ProjectID] = set
		}
		set[m.FeatureType] = m
	}
	return nil
}

type fakeCatalogRepo struct {
	assemblies  map[string]models.Assembly
	materials   map[uuid.UUID]models.Material
	regions     map[uuid.UUID]models.Region
	zipToRegion map[string]uuid.UUID
	overrides   map[uuid.UUID]map[uuid.UUID]float64
	laborRates  map[uuid.UUID]map[string]float64
	options     []models.SelectionOption
}

func newFakeCatalogRepo() *fakeCatalogRepo {
	return &fakeCatalogRepo{
		assemblies:  map[string]models.Assembly{},
		materials:   map[uuid.UUID]models.Material{},
		regions:     map[uuid.UUID]models.Region{},
		zipToRegion: map[string]uuid.UUID{},
		overrides:   map[uuid.UUID]map[uuid.UUID]float64{},
		laborRates:  map[uuid.UUID]map[string]float64{},
	}
}

func (f *fakeCatalogRepo) GetAssembliesByCodes(_ context.Context, codes []string) (map[string]models.Assembly, error) {
	out := map[string]models.Assembly{}
	for _, code := range codes {
		if a, ok := f.assemblies[code]; ok {
			out[code] = a
		}
	}
	return out, nil
}

func (f *fakeCatalogRepo) GetMaterials(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Material, error) {
	out := map[uuid.UUID]models.Material{}
	for _, id := range ids {
		if m, ok := f.materials[id]; ok {
			out[id] = m
		}
	}
	return out, nil
}

func (f *fakeCatalogRepo) GetRegion(_ context.Context, id uuid.UUID) (*models.Region, error) {
	r, ok := f.regions[id]
	if !ok {
		// Wrapped so callers comparing with == instead of errors.Is fail here.
		return nil, fmt.Errorf("region %s: %w", id, apperrors.ErrNotFound)
	}
	return &r, nil
}

func (f *fakeCatalogRepo) GetRegionByZip(_ context.Context, zipCode string) (*models.Region, error) {
	id, ok := f.zipToRegion[zipCode]
	if !ok {
		return nil, fmt.Errorf("zip %s: %w", zipCode, apperrors.ErrNotFound)
	}
	return f.GetRegion(context.Background(), id)
}

func (f *fakeCatalogRepo) GetPriceOverrides(_ context.Context, regionID uuid.UUID) (map[uuid.UUID]float64, error) {
	out := map[uuid.UUID]float64{}
	for materialID, cost := range f.overrides[regionID] {
		out[materialID] = cost
	}
	return out, nil
}

func (f *fakeCatalogRepo) GetLaborRates(_ context.Context, regionID uuid.UUID) (map[string]float64, error) {
	out := map[string]float64{}
	for trade, rate := range f.laborRates[regionID] {
		out[trade] = rate
	}
	return out, nil
}

func (f *fakeCatalogRepo) ListSelectionOptions(_ context.Context) ([]models.SelectionOption, error) {
	return f.options, nil
}

type fakeEstimateRepo struct {
	saved []*models.EstimateBreakdown
}

func (f *fakeEstimateRepo) Save(_ context.Context, b *models.EstimateBreakdown) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	b.CreatedAt = time.Now()
	cp := *b
	f.saved = append(f.saved, &cp)
	return nil
}

func (f *fakeEstimateRepo) GetLatestByProject(_ context.Context, projectID uuid.UUID) (*models.EstimateBreakdown, error) {
	for i := len(f.saved) - 1; i >= 0; i-- {
		if f.saved[i].ProjectID == projectID {
			cp := *f.saved[i]
			return &cp, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

var (
	_ repositories.ProjectRepository     = (*fakeProjectRepo)(nil)
	_ repositories.SelectionRepository   = (*fakeSelectionRepo)(nil)
	_ repositories.MeasurementRepository = (*fakeMeasurementRepo)(nil)
	_ repositories.CatalogRepository     = (*fakeCatalogRepo)(nil)
	_ repositories.EstimateRepository    = (*fakeEstimateRepo)(nil)
)
