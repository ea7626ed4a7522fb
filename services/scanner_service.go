package services

import (
	"errors"
	"fmt"
	"log"

	"backend/models"
	"backend/utils"
)

// ProductSource is one upstream nutrition database. A miss is (nil, tag,
// false, nil); errors and timeouts are reported but the caller treats them
// as misses too.
type ProductSource interface {
	Query(barcode, region, lang string) (product *models.Product, source string, found bool, err error)
}

// ScopedSource restricts a source to specific regions. Nil Regions means
// the source applies everywhere.
type ScopedSource struct {
	Source  ProductSource
	Regions []string
}

func (s ScopedSource) applies(region string) bool {
	if len(s.Regions) == 0 {
		return true
	}
	for _, r := range s.Regions {
		if r == region {
			return true
		}
	}
	return false
}

// AlertSink receives danger verdicts for persistence and realtime delivery.
type AlertSink interface {
	Emit(user *models.User, barcode, alertType, message string)
}

// ScanResult is the resolution outcome returned to the HTTP layer.
type ScanResult struct {
	Found   bool
	Product *models.Product
	Safety  *utils.SafetyVerdict
	Region  string
	Source  string
}

// ScannerService orchestrates barcode resolution: region detection, cache
// check, the ordered external source chain, persistence and safety
// analysis.
type ScannerService struct {
	store   ProductStore
	regions *RegionService
	users   UserDirectory
	chain   []ScopedSource
	alerts  AlertSink // optional
}

func NewScannerService(store ProductStore, regions *RegionService, users UserDirectory, alerts AlertSink, chain []ScopedSource) *ScannerService {
	return &ScannerService{
		store:   store,
		regions: regions,
		users:   users,
		alerts:  alerts,
		chain:   chain,
	}
}

// SourceCache tags a product served from the local store.
const SourceCache = "cache"

// Scan resolves a barcode for an optional user. A nil error with
// Found=false means no source knew the barcode; the caller may offer
// manual submission. Only store failures surface as errors.
func (s *ScannerService) Scan(barcode, userID, sourceIP string) (*ScanResult, error) {
	region := s.regions.Resolve(userID, sourceIP)
	lang := LanguageFor(region)

	log.Printf("scanning barcode %s for region %s", barcode, region)

	cached, err := s.store.FindByCodeAndRegion(barcode, region)
	if err == nil {
		return s.analyzed(cached, userID, region, SourceCache), nil
	}
	if !errors.Is(err, ErrProductNotFound) {
		return nil, fmt.Errorf("product lookup for %s: %w", barcode, err)
	}

	for _, scoped := range s.chain {
		if !scoped.applies(region) {
			continue
		}
		product, source, found, err := scoped.Source.Query(barcode, region, lang)
		if err != nil {
			// transient source failure is a miss, never fatal
			log.Printf("source %s failed for %s: %v", source, barcode, err)
			continue
		}
		if !found {
			continue
		}
		if len(product.Regions) == 0 {
			log.Printf("source %s returned no region entry for %s, skipping", source, barcode)
			continue
		}

		saved, err := s.store.UpsertWithRegion(product, product.Regions[0])
		if err != nil {
			// a found-but-uncached product would trigger redundant
			// external calls on every rescan
			return nil, fmt.Errorf("persist product %s: %w", barcode, err)
		}

		log.Printf("product %s saved from %s", barcode, source)
		return s.analyzed(saved, userID, region, source), nil
	}

	log.Printf("product %s not found in any database for region %s", barcode, region)
	return &ScanResult{Found: false, Region: region}, nil
}

// SubmitManual appends a manually entered product; creates an unverified
// record when the code is new.
func (s *ScannerService) SubmitManual(product *models.Product, entry models.RegionEntry) (*models.Product, error) {
	if len(product.Regions) == 0 {
		product.Regions = []models.RegionEntry{entry}
	}
	saved, err := s.store.UpsertWithRegion(product, entry)
	if err != nil {
		return nil, fmt.Errorf("persist manual product %s: %w", product.Code, err)
	}
	return saved, nil
}

func (s *ScannerService) analyzed(product *models.Product, userID, region, source string) *ScanResult {
	var user *models.User
	var profile *models.HealthProfile
	if userID != "" && s.users != nil {
		if u, err := s.users.FindByUserID(userID); err == nil {
			user = u
			profile = u.HealthProfile()
		}
	}

	verdict := utils.AnalyzeSafety(product, profile)

	if s.alerts != nil && user != nil && verdict.OverallSafety == utils.SafetyDanger {
		message := fmt.Sprintf("Danger: %s is not safe for you", product.Name)
		if len(verdict.AllergenWarnings) > 0 {
			message = verdict.AllergenWarnings[0].Message
		}
		s.alerts.Emit(user, product.Code, utils.SafetyDanger, message)
	}

	return &ScanResult{
		Found:   true,
		Product: product,
		Safety:  verdict,
		Region:  region,
		Source:  source,
	}
}
