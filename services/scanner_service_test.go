package services

import (
	"errors"
	"testing"
	"time"

	"backend/models"
	"backend/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	product *models.Product
	tag     string
	err     error
	calls   int
}

func (s *stubSource) Query(barcode, region, lang string) (*models.Product, string, bool, error) {
	s.calls++
	if s.err != nil {
		return nil, s.tag, false, s.err
	}
	if s.product == nil {
		return nil, s.tag, false, nil
	}
	return s.product, s.tag, true, nil
}

type spyAlerts struct {
	emitted []models.Alert
}

func (s *spyAlerts) Emit(user *models.User, barcode, alertType, message string) {
	s.emitted = append(s.emitted, models.Alert{UserID: user.ID, Type: alertType, Barcode: barcode, Message: message})
}

type failingStore struct {
	ProductStore
}

func (f failingStore) UpsertWithRegion(product *models.Product, entry models.RegionEntry) (*models.Product, error) {
	return nil, errors.New("db down")
}

func testProduct(code, region string, carbs, fiber, sugar float64, contains []string) *models.Product {
	return &models.Product{
		Code:      code,
		Name:      "Stub Product",
		Brand:     "StubBrand",
		Nutrition: models.NewNutritionFacts("100g", 200, carbs, fiber, sugar, 3, 2),
		DiabetesInfo: models.DiabetesInfo{
			CarbQuality: utils.CategorizeCarbs(carbs, fiber, sugar),
		},
		Allergens: models.NewAllergenInfo(contains, nil),
		Regions: []models.RegionEntry{{
			Country:     region,
			Available:   true,
			Barcode:     code,
			Source:      SourceOpenFoodFacts,
			LastUpdated: time.Now(),
		}},
		Source:   SourceOpenFoodFacts,
		Verified: true,
	}
}

func newTestScanner(store ProductStore, users UserDirectory, alerts AlertSink, chain []ScopedSource) *ScannerService {
	regions := NewRegionService(users, nil, "US")
	return NewScannerService(store, regions, users, alerts, chain)
}

func TestScanSecondCallHitsCache(t *testing.T) {
	src := &stubSource{product: testProduct("111", "US", 10, 1, 2, nil), tag: "openfoodfacts-US"}
	scanner := newTestScanner(NewMemoryProductStore(), nil, nil, []ScopedSource{{Source: src}})

	first, err := scanner.Scan("111", "", "1.2.3.4")
	require.NoError(t, err)
	require.True(t, first.Found)
	assert.Equal(t, "openfoodfacts-US", first.Source)

	second, err := scanner.Scan("111", "", "1.2.3.4")
	require.NoError(t, err)
	require.True(t, second.Found)
	assert.Equal(t, SourceCache, second.Source)
	assert.Equal(t, 1, src.calls)
}

func TestScanChainShortCircuitsOnFirstSuccess(t *testing.T) {
	first := &stubSource{product: testProduct("222", "US", 10, 1, 2, nil), tag: "openfoodfacts-US"}
	second := &stubSource{tag: "openfoodfacts-global"}
	scanner := newTestScanner(NewMemoryProductStore(), nil, nil, []ScopedSource{
		{Source: first}, {Source: second},
	})

	result, err := scanner.Scan("222", "", "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, result.Found)
	assert.Equal(t, "openfoodfacts-US", result.Source)
	assert.Zero(t, second.calls)
}

func TestScanSourceErrorFallsThroughToNext(t *testing.T) {
	broken := &stubSource{err: errors.New("timeout"), tag: "openfoodfacts-US"}
	working := &stubSource{product: testProduct("333", "US", 10, 1, 2, nil), tag: "openfoodfacts-global"}
	scanner := newTestScanner(NewMemoryProductStore(), nil, nil, []ScopedSource{
		{Source: broken}, {Source: working},
	})

	result, err := scanner.Scan("333", "", "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, result.Found)
	assert.Equal(t, "openfoodfacts-global", result.Source)
	assert.Equal(t, 1, broken.calls)
}

func TestScanNotFoundAnywhere(t *testing.T) {
	miss := &stubSource{tag: "openfoodfacts-US"}
	scanner := newTestScanner(NewMemoryProductStore(), nil, nil, []ScopedSource{{Source: miss}})

	result, err := scanner.Scan("444", "", "1.2.3.4")
	require.NoError(t, err)
	assert.False(t, result.Found)
	assert.Equal(t, "US", result.Region)
	assert.Nil(t, result.Product)
}

func TestScanRegionScopedSourceSkipped(t *testing.T) {
	users := &stubUsers{user: &models.User{UserID: "u1", Region: "IL"}}
	usOnly := &stubSource{product: testProduct("555", "IL", 10, 1, 2, nil), tag: SourceUSDA}
	scanner := newTestScanner(NewMemoryProductStore(), users, nil, []ScopedSource{
		{Source: usOnly, Regions: []string{"US"}},
	})

	result, err := scanner.Scan("555", "u1", "1.2.3.4")
	require.NoError(t, err)
	assert.False(t, result.Found)
	assert.Equal(t, "IL", result.Region)
	assert.Zero(t, usOnly.calls)
}

func TestScanCrossRegionIsMiss(t *testing.T) {
	// known under US only; an IL user re-queries external sources and the
	// result lands as a second region entry on the same product
	store := NewMemoryProductStore()
	_, err := store.UpsertWithRegion(testProduct("666", "US", 10, 1, 2, nil), testProduct("666", "US", 10, 1, 2, nil).Regions[0])
	require.NoError(t, err)

	users := &stubUsers{user: &models.User{UserID: "u1", Region: "IL"}}
	src := &stubSource{product: testProduct("666", "IL", 10, 1, 2, nil), tag: "openfoodfacts-IL"}
	scanner := newTestScanner(store, users, nil, []ScopedSource{{Source: src}})

	result, err := scanner.Scan("666", "u1", "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, result.Found)
	assert.Equal(t, "openfoodfacts-IL", result.Source)
	assert.Equal(t, 1, src.calls)

	require.Len(t, result.Product.Regions, 2)
}

func TestScanPersistFailureIsFatal(t *testing.T) {
	src := &stubSource{product: testProduct("777", "US", 10, 1, 2, nil), tag: "openfoodfacts-US"}
	store := failingStore{ProductStore: NewMemoryProductStore()}
	scanner := newTestScanner(store, nil, nil, []ScopedSource{{Source: src}})

	_, err := scanner.Scan("777", "", "1.2.3.4")
	assert.Error(t, err)
}

func TestScanEndToEndHighSugarVerdict(t *testing.T) {
	user := &models.User{
		UserID: "diabetic-user",
		Region: "US",
		Health: models.HealthProfile{Diabetic: true, DailyCarbLimit: 100},
	}
	src := &stubSource{product: testProduct("0000000000001", "US", 60, 1, 40, nil), tag: "openfoodfacts-US"}
	scanner := newTestScanner(NewMemoryProductStore(), &stubUsers{user: user}, nil, []ScopedSource{{Source: src}})

	result, err := scanner.Scan("0000000000001", "diabetic-user", "1.2.3.4")
	require.NoError(t, err)
	require.True(t, result.Found)

	assert.Equal(t, 59.0, result.Product.Nutrition.NetCarbs)
	assert.Equal(t, "fast", string(result.Product.DiabetesInfo.CarbQuality))
	assert.Equal(t, utils.SafetyWarning, result.Safety.OverallSafety)
	require.Len(t, result.Safety.DiabetesWarnings, 2)
	assert.Contains(t, result.Safety.DiabetesWarnings[0].Message, "High carbs")
	assert.Contains(t, result.Safety.DiabetesWarnings[1].Message, "Fast-acting")
}

func TestScanDangerVerdictEmitsAlert(t *testing.T) {
	user := &models.User{
		UserID: "allergic-user",
		Region: "US",
		Health: models.HealthProfile{Allergies: []string{"peanuts"}, DailyCarbLimit: 200},
	}
	user.ID = 7
	src := &stubSource{product: testProduct("888", "US", 10, 1, 2, []string{"peanuts"}), tag: "openfoodfacts-US"}
	alerts := &spyAlerts{}
	scanner := newTestScanner(NewMemoryProductStore(), &stubUsers{user: user}, alerts, []ScopedSource{{Source: src}})

	result, err := scanner.Scan("888", "allergic-user", "1.2.3.4")
	require.NoError(t, err)
	assert.Equal(t, utils.SafetyDanger, result.Safety.OverallSafety)

	require.Len(t, alerts.emitted, 1)
	assert.Equal(t, uint(7), alerts.emitted[0].UserID)
	assert.Equal(t, "danger", alerts.emitted[0].Type)
	assert.Equal(t, "888", alerts.emitted[0].Barcode)
}

func TestScanAnonymousGetsUnknownVerdict(t *testing.T) {
	src := &stubSource{product: testProduct("999", "US", 50, 1, 40, []string{"peanuts"}), tag: "openfoodfacts-US"}
	scanner := newTestScanner(NewMemoryProductStore(), nil, nil, []ScopedSource{{Source: src}})

	result, err := scanner.Scan("999", "", "1.2.3.4")
	require.NoError(t, err)
	assert.Equal(t, utils.SafetyUnknown, result.Safety.OverallSafety)
	assert.Empty(t, result.Safety.AllergenWarnings)
	assert.Empty(t, result.Safety.DiabetesWarnings)
}
