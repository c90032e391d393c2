package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/estimateai/plancost-engine/pkg/apperrors"
	"github.com/estimateai/plancost-engine/pkg/models"
)

type estimateFixture struct {
	service      *EstimateService
	projects     *fakeProjectRepo
	selections   *fakeSelectionRepo
	measurements *fakeMeasurementRepo
	catalog      *fakeCatalogRepo
	estimates    *fakeEstimateRepo
}

func newEstimateFixture(t *testing.T) *estimateFixture {
	return newEstimateFixtureWithMarkups(t, 10, 10)
}

func newEstimateFixtureWithMarkups(t *testing.T, overheadPct, profitPct float64) *estimateFixture {
	t.Helper()
	logger := zap.NewNop()

	f := &estimateFixture{
		projects:     newFakeProjectRepo(),
		selections:   newFakeSelectionRepo(),
		measurements: newFakeMeasurementRepo(),
		catalog:      newFakeCatalogRepo(),
		estimates:    &fakeEstimateRepo{},
	}
	f.service = NewEstimateService(
		f.projects, f.selections, f.measurements, f.catalog, f.estimates,
		NewCostRollupEngine(NewQuantityResolver(), logger),
		NewEstimateAggregator(),
		overheadPct, profitPct,
		logger)
	return f
}

func (f *estimateFixture) seedSlabCatalog(t *testing.T) uuid.UUID {
	t.Helper()
	concreteID := uuid.New()
	f.catalog.materials[concreteID] = models.Material{
		ID: concreteID, Name: "Concrete 3000 PSI", Unit: "CY", BaseCost: 145.00,
	}
	f.catalog.assemblies["FOUND_SLAB"] = models.Assembly{
		ID:               uuid.New(),
		Code:             "FOUND_SLAB",
		Name:             "Slab on Grade Foundation",
		Category:         "Foundation",
		Unit:             "SF",
		QuantityCategory: models.CategoryFoundation,
		MaterialLines: []models.MaterialLine{
			{MaterialID: concreteID, QtyPerUnit: 0.0123, WasteFactor: 0.05},
		},
		LaborLines: []models.LaborLine{
			{TradeCode: "LABOR", HoursPerUnit: 0.008},
		},
	}
	return concreteID
}

func TestComputeEstimateEndToEnd(t *testing.T) {
	f := newEstimateFixture(t)
	ctx := context.Background()
	f.seedSlabCatalog(t)

	project := &models.Project{Name: "Maple St"}
	require.NoError(t, f.projects.Create(ctx, project))
	require.NoError(t, f.selections.Upsert(ctx, &models.UserSelection{
		ProjectID: project.ID, Category: "foundation_type", AssemblyCode: "FOUND_SLAB",
	}))

	breakdown, err := f.service.ComputeEstimate(ctx, project.ID)
	require.NoError(t, err)

	// Default 2000 sf, no region: base costs and fallback labor rate.
	wantMaterial := 2000 * 0.0123 * 1.05 * 145.00
	wantLabor := 2000 * 0.008 * FallbackLaborRate
	assert.InDelta(t, wantMaterial, breakdown.SubtotalMaterial, 1e-6)
	assert.InDelta(t, wantLabor, breakdown.SubtotalLabor, 1e-6)
	assert.InDelta(t, (wantMaterial+wantLabor)*1.1*1.1, breakdown.TotalAmount, 1e-6)
	assert.Len(t, breakdown.LineItems, 2)
	assert.Equal(t, project.ID, breakdown.ProjectID)

	// Persisted and project marked priced.
	require.Len(t, f.estimates.saved, 1)
	stored, err := f.projects.Get(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ProjectStatusPriced, stored.Status)
}

func TestComputeEstimateAppliesRegionalPricing(t *testing.T) {
	f := newEstimateFixture(t)
	ctx := context.Background()
	concreteID := f.seedSlabCatalog(t)

	regionID := uuid.New()
	f.catalog.regions[regionID] = models.Region{
		ID: regionID, Code: "WEST", MaterialMultiplier: 1.15, LaborMultiplier: 1.35,
	}
	f.catalog.laborRates[regionID] = map[string]float64{"LABOR": 48.00}

	project := &models.Project{Name: "Pacific Ave", RegionID: &regionID}
	require.NoError(t, f.projects.Create(ctx, project))
	require.NoError(t, f.selections.Upsert(ctx, &models.UserSelection{
		ProjectID: project.ID, Category: "foundation_type", AssemblyCode: "FOUND_SLAB",
	}))

	breakdown, err := f.service.ComputeEstimate(ctx, project.ID)
	require.NoError(t, err)
	assert.InDelta(t, 2000*0.0123*1.05*145.00*1.15, breakdown.SubtotalMaterial, 1e-6)
	assert.InDelta(t, 2000*0.008*48.00, breakdown.SubtotalLabor, 1e-6)

	// A region override pins the concrete price outright.
	f.catalog.overrides[regionID] = map[uuid.UUID]float64{concreteID: 80.00}
	breakdown, err = f.service.ComputeEstimate(ctx, project.ID)
	require.NoError(t, err)
	assert.InDelta(t, 2000*0.0123*1.05*80.00, breakdown.SubtotalMaterial, 1e-6)
}

func TestComputeEstimateZeroMarkupsHonored(t *testing.T) {
	f := newEstimateFixtureWithMarkups(t, 0, 0)
	ctx := context.Background()
	f.seedSlabCatalog(t)

	project := &models.Project{Name: "At Cost"}
	require.NoError(t, f.projects.Create(ctx, project))
	require.NoError(t, f.selections.Upsert(ctx, &models.UserSelection{
		ProjectID: project.ID, Category: "foundation_type", AssemblyCode: "FOUND_SLAB",
	}))

	breakdown, err := f.service.ComputeEstimate(ctx, project.ID)
	require.NoError(t, err)

	// An explicit 0% markup is a real configuration, not "unset": the total
	// must equal the raw subtotals with no overhead or profit applied.
	assert.Zero(t, breakdown.Overhead)
	assert.Zero(t, breakdown.Profit)
	assert.InDelta(t, breakdown.SubtotalMaterial+breakdown.SubtotalLabor, breakdown.TotalAmount, 1e-9)
}

func TestComputeEstimateUnsetMarkupsUseDefaults(t *testing.T) {
	f := newEstimateFixtureWithMarkups(t, -1, -1)
	ctx := context.Background()
	f.seedSlabCatalog(t)

	project := &models.Project{Name: "Defaults"}
	require.NoError(t, f.projects.Create(ctx, project))
	require.NoError(t, f.selections.Upsert(ctx, &models.UserSelection{
		ProjectID: project.ID, Category: "foundation_type", AssemblyCode: "FOUND_SLAB",
	}))

	breakdown, err := f.service.ComputeEstimate(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, DefaultOverheadPct, breakdown.OverheadPct)
	assert.Equal(t, DefaultProfitPct, breakdown.ProfitPct)
}

func TestComputeEstimateUnknownRegionPricesAtBase(t *testing.T) {
	f := newEstimateFixture(t)
	ctx := context.Background()
	f.seedSlabCatalog(t)

	// Region id that the catalog does not know. The fake wraps ErrNotFound,
	// so this also guards the errors.Is comparison in buildSnapshot.
	ghost := uuid.New()
	project := &models.Project{Name: "Ghost Region", RegionID: &ghost}
	require.NoError(t, f.projects.Create(ctx, project))
	require.NoError(t, f.selections.Upsert(ctx, &models.UserSelection{
		ProjectID: project.ID, Category: "foundation_type", AssemblyCode: "FOUND_SLAB",
	}))

	breakdown, err := f.service.ComputeEstimate(ctx, project.ID)
	require.NoError(t, err)
	assert.InDelta(t, 2000*0.0123*1.05*145.00, breakdown.SubtotalMaterial, 1e-6)
	assert.InDelta(t, 2000*0.008*FallbackLaborRate, breakdown.SubtotalLabor, 1e-6)
}

func TestComputeEstimateIsDeterministic(t *testing.T) {
	f := newEstimateFixture(t)
	ctx := context.Background()
	f.seedSlabCatalog(t)

	project := &models.Project{Name: "Repeat"}
	require.NoError(t, f.projects.Create(ctx, project))
	require.NoError(t, f.selections.Upsert(ctx, &models.UserSelection{
		ProjectID: project.ID, Category: "foundation_type", AssemblyCode: "FOUND_SLAB",
	}))

	first, err := f.service.ComputeEstimate(ctx, project.ID)
	require.NoError(t, err)
	second, err := f.service.ComputeEstimate(ctx, project.ID)
	require.NoError(t, err)

	assert.Equal(t, first.LineItems, second.LineItems)
	assert.InDelta(t, first.TotalAmount, second.TotalAmount, 1e-9)
}

func TestComputeEstimateNoSelections(t *testing.T) {
	f := newEstimateFixture(t)
	ctx := context.Background()

	project := &models.Project{Name: "Empty"}
	require.NoError(t, f.projects.Create(ctx, project))

	breakdown, err := f.service.ComputeEstimate(ctx, project.ID)
	require.NoError(t, err)
	assert.Empty(t, breakdown.LineItems)
	assert.Zero(t, breakdown.TotalAmount)
}

func TestComputeEstimateProjectNotFound(t *testing.T) {
	f := newEstimateFixture(t)

	_, err := f.service.ComputeEstimate(context.Background(), uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestGetLatestReturnsMostRecent(t *testing.T) {
	f := newEstimateFixture(t)
	ctx := context.Background()
	f.seedSlabCatalog(t)

	project := &models.Project{Name: "Latest"}
	require.NoError(t, f.projects.Create(ctx, project))
	require.NoError(t, f.selections.Upsert(ctx, &models.UserSelection{
		ProjectID: project.ID, Category: "foundation_type", AssemblyCode: "FOUND_SLAB",
	}))

	_, err := f.service.ComputeEstimate(ctx, project.ID)
	require.NoError(t, err)

	latest, err := f.service.GetLatest(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, project.ID, latest.ProjectID)

	_, err = f.service.GetLatest(ctx, uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
