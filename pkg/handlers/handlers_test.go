package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/estimateai/plancost-engine/pkg/apperrors"
	"github.com/estimateai/plancost-engine/pkg/config"
	"github.com/estimateai/plancost-engine/pkg/models"
	"github.com/estimateai/plancost-engine/pkg/repositories"
	"github.com/estimateai/plancost-engine/pkg/services"
	"github.com/estimateai/plancost-engine/pkg/takeoff"
)

// In-memory repository fakes backing the full handler stack. Handlers are
// tested through real services so status-code mapping covers the same error
// values the services actually return.

type memProjectRepo struct {
	projects map[uuid.UUID]*models.Project
}

func (m *memProjectRepo) Create(_ context.Context, p *models.Project) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Status == "" {
		p.Status = models.ProjectStatusUploaded
	}
	cp := *p
	m.projects[p.ID] = &cp
	return nil
}

func (m *memProjectRepo) Get(_ context.Context, id uuid.UUID) (*models.Project, error) {
	p, ok := m.projects[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memProjectRepo) UpdateStatus(_ context.Context, id uuid.UUID, status string) error {
	p, ok := m.projects[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	p.Status = status
	return nil
}

type memSelectionRepo struct {
	selections map[uuid.UUID]map[string]models.UserSelection
}

func (m *memSelectionRepo) Upsert(_ context.Context, s *models.UserSelection) error {
	s.UpdatedAt = time.Now()
	byCategory, ok := m.selections[s.ProjectID]
	if !ok {
		byCategory = map[string]models.UserSelection{}
		m.selections[s.ProjectID] = byCategory
	}
	byCategory[s.Category] = *s
	return nil
}

func (m *memSelectionRepo) ListByProject(_ context.Context, projectID uuid.UUID) ([]models.UserSelection, error) {
	var out []models.UserSelection
	for _, s := range m.selections[projectID] {
		out = append(out, s)
	}
	return out, nil
}

type memMeasurementRepo struct {
	byProject map[uuid.UUID]models.MeasurementSet
}

func (m *memMeasurementRepo) GetByProject(_ context.Context, projectID uuid.UUID) (models.MeasurementSet, error) {
	set, ok := m.byProject[projectID]
	if !ok {
		return models.MeasurementSet{}, nil
	}
	return set, nil
}

func (m *memMeasurementRepo) UpsertMany(_ context.Context, measurements []models.Measurement) error {
	for _, meas := range measurements {
		set, ok := m.byProject[meas.ProjectID]
		if !ok {
			set = models.MeasurementSet{}
			m.byProject[meas.ProjectID] = set
		}
		set[meas.FeatureType] = meas
	}
	return nil
}

type memCatalogRepo struct {
	assemblies  map[string]models.Assembly
	materials   map[uuid.UUID]models.Material
	regions     map[uuid.UUID]models.Region
	zipToRegion map[string]uuid.UUID
	options     []models.SelectionOption
}

func (m *memCatalogRepo) GetAssembliesByCodes(_ context.Context, codes []string) (map[string]models.Assembly, error) {
	out := map[string]models.Assembly{}
	for _, code := range codes {
		if a, ok := m.assemblies[code]; ok {
			out[code] = a
		}
	}
	return out, nil
}

func (m *memCatalogRepo) GetMaterials(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Material, error) {
	out := map[uuid.UUID]models.Material{}
	for _, id := range ids {
		if mat, ok := m.materials[id]; ok {
			out[id] = mat
		}
	}
	return out, nil
}

func (m *memCatalogRepo) GetRegion(_ context.Context, id uuid.UUID) (*models.Region, error) {
	r, ok := m.regions[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &r, nil
}

func (m *memCatalogRepo) GetRegionByZip(_ context.Context, zipCode string) (*models.Region, error) {
	id, ok := m.zipToRegion[zipCode]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return m.GetRegion(context.Background(), id)
}

func (m *memCatalogRepo) GetPriceOverrides(_ context.Context, _ uuid.UUID) (map[uuid.UUID]float64, error) {
	return map[uuid.UUID]float64{}, nil
}

func (m *memCatalogRepo) GetLaborRates(_ context.Context, _ uuid.UUID) (map[string]float64, error) {
	return map[string]float64{}, nil
}

func (m *memCatalogRepo) ListSelectionOptions(_ context.Context) ([]models.SelectionOption, error) {
	return m.options, nil
}

type memEstimateRepo struct {
	saved []*models.EstimateBreakdown
}

func (m *memEstimateRepo) Save(_ context.Context, b *models.EstimateBreakdown) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	b.CreatedAt = time.Now()
	cp := *b
	m.saved = append(m.saved, &cp)
	return nil
}

func (m *memEstimateRepo) GetLatestByProject(_ context.Context, projectID uuid.UUID) (*models.EstimateBreakdown, error) {
	for i := len(m.saved) - 1; i >= 0; i-- {
		if m.saved[i].ProjectID == projectID {
			cp := *m.saved[i]
			return &cp, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

var (
	_ repositories.ProjectRepository     = (*memProjectRepo)(nil)
	_ repositories.SelectionRepository   = (*memSelectionRepo)(nil)
	_ repositories.MeasurementRepository = (*memMeasurementRepo)(nil)
	_ repositories.CatalogRepository     = (*memCatalogRepo)(nil)
	_ repositories.EstimateRepository    = (*memEstimateRepo)(nil)
)

// testEnv wires the full handler stack over in-memory repositories.
type testEnv struct {
	mux          *http.ServeMux
	projects     *memProjectRepo
	selections   *memSelectionRepo
	measurements *memMeasurementRepo
	catalog      *memCatalogRepo
	estimates    *memEstimateRepo
}

func newTestEnv(t *testing.T, sources ...takeoff.Source) *testEnv {
	t.Helper()
	logger := zap.NewNop()

	env := &testEnv{
		mux:          http.NewServeMux(),
		projects:     &memProjectRepo{projects: map[uuid.UUID]*models.Project{}},
		selections:   &memSelectionRepo{selections: map[uuid.UUID]map[string]models.UserSelection{}},
		measurements: &memMeasurementRepo{byProject: map[uuid.UUID]models.MeasurementSet{}},
		catalog: &memCatalogRepo{
			assemblies:  map[string]models.Assembly{},
			materials:   map[uuid.UUID]models.Material{},
			regions:     map[uuid.UUID]models.Region{},
			zipToRegion: map[string]uuid.UUID{},
		},
		estimates: &memEstimateRepo{},
	}

	takeoffService := services.NewTakeoffService(
		sources,
		takeoff.NewPool(takeoff.DefaultPoolConfig(), logger),
		services.NewReconciler(logger),
		logger,
	)
	projectService := services.NewProjectService(env.projects, env.catalog, env.measurements, takeoffService, logger)
	selectionService := services.NewSelectionService(env.selections, env.catalog, logger)
	estimateService := services.NewEstimateService(
		env.projects, env.selections, env.measurements, env.catalog, env.estimates,
		services.NewCostRollupEngine(services.NewQuantityResolver(), logger),
		services.NewEstimateAggregator(),
		-1, -1,
		logger,
	)

	// Sources that can also answer questions back the ask endpoint, the same
	// way main wires the real providers.
	var answerers []takeoff.Answerer
	for _, src := range sources {
		if a, ok := src.(takeoff.Answerer); ok {
			answerers = append(answerers, a)
		}
	}
	assistantService := services.NewAssistantService(answerers, logger)

	cfg := &config.Config{Version: "test", Env: "test"}
	NewHealthHandler(cfg, logger).RegisterRoutes(env.mux)
	NewProjectsHandler(projectService, logger).RegisterRoutes(env.mux)
	NewSelectionsHandler(selectionService, logger).RegisterRoutes(env.mux)
	NewEstimatesHandler(estimateService, logger).RegisterRoutes(env.mux)
	NewAskHandler(assistantService, logger).RegisterRoutes(env.mux)

	return env
}

// createProject registers a project through the repository directly.
func (env *testEnv) createProject(t *testing.T, name string) *models.Project {
	t.Helper()
	p := &models.Project{Name: name}
	require.NoError(t, env.projects.Create(context.Background(), p))
	return p
}

func (env *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	env.mux.ServeHTTP(rec, req)
	return rec
}

// doMultipart posts a multipart form with the given text field and optional
// plan file.
func (env *testEnv) doMultipart(t *testing.T, path, textField, filename string, fileData []byte) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if textField != "" {
		require.NoError(t, mw.WriteField("text", textField))
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("plan", filename)
		require.NoError(t, err)
		_, err = fw.Write(fileData)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	env.mux.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}
