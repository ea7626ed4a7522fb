package services

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// GeoIPClient resolves an IP address to an ISO country code. Used only as a
// fallback identity signal when the profile carries no region.
type GeoIPClient interface {
	CountryCode(ip string) (string, error)
}

// IPAPIClient talks to the free ipapi.co lookup service.
type IPAPIClient struct {
	baseURL string
	client  *http.Client
}

func NewIPAPIClient(baseURL string, timeout time.Duration) *IPAPIClient {
	return &IPAPIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *IPAPIClient) CountryCode(ip string) (string, error) {
	u := fmt.Sprintf("%s/%s/json/", c.baseURL, url.PathEscape(ip))

	resp, err := c.client.Get(u)
	if err != nil {
		return "", fmt.Errorf("failed to call IP geolocation: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("geolocation API error %d", resp.StatusCode)
	}

	var body struct {
		CountryCode string `json:"country_code"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("failed to parse geolocation JSON: %w", err)
	}
	return body.CountryCode, nil
}

// RegionService picks the consumer's region: profile first, IP geolocation
// second, hard default last. It never fails the request; every miss falls
// through to the next signal.
type RegionService struct {
	users         UserDirectory
	geo           GeoIPClient
	defaultRegion string
}

func NewRegionService(users UserDirectory, geo GeoIPClient, defaultRegion string) *RegionService {
	return &RegionService{users: users, geo: geo, defaultRegion: defaultRegion}
}

func (s *RegionService) Resolve(userID, sourceIP string) string {
	if userID != "" && s.users != nil {
		if user, err := s.users.FindByUserID(userID); err == nil && user.Region != "" {
			return user.Region
		}
	}

	if s.geo != nil && sourceIP != "" {
		cc, err := s.geo.CountryCode(sourceIP)
		if err == nil && cc != "" {
			return cc
		}
		if err != nil {
			log.Printf("IP geolocation failed: %v", err)
		}
	}

	return s.defaultRegion
}

var languageByRegion = map[string]string{
	"US": "en",
	"IL": "he",
	"MX": "es",
	"AR": "es",
	"CL": "es",
	"CO": "es",
	"ES": "es",
	"PE": "es",
	"VE": "es",
}

// LanguageFor maps a region to the locale hint passed to external sources.
func LanguageFor(region string) string {
	if lang, ok := languageByRegion[region]; ok {
		return lang
	}
	return "en"
}
