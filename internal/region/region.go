// Package region maps edge geo headers to the storefront's commerce
// regions. The CDN stamps x-vercel-ip-country and x-vercel-ip-city on
// every request; this endpoint turns them into a region, a suggested
// UI language, and a friendly country name so the front end can offer
// a localized default without a client-side geo lookup.
package region

import (
	"net/http"
	"time"

	"github.com/meridian-labs/storegate/internal/api"
)

// countryRegion maps ISO 3166-1 alpha-2 country codes to commerce
// regions. Countries without a dedicated storefront roll up into the
// nearest one (HK, TW, KR and Oceania ship from Singapore).
var countryRegion = map[string]string{
	// North America
	"US": "us", "CA": "us", "MX": "us",

	// Europe
	"DE": "eu", "FR": "eu", "ES": "eu", "IT": "eu", "NL": "eu",
	"BE": "eu", "AT": "eu", "CH": "eu", "SE": "eu", "NO": "eu",
	"DK": "eu", "FI": "eu", "PL": "eu", "CZ": "eu", "PT": "eu",
	"GR": "eu", "IE": "eu",
	"GB": "uk",

	// Middle East
	"AE": "mena", "SA": "mena", "QA": "mena", "KW": "mena",
	"BH": "mena", "OM": "mena", "JO": "mena", "LB": "mena",
	"EG": "mena",

	// Asia
	"JP": "jp", "CN": "cn", "SG": "sg", "VN": "vn", "TH": "th",
	"IN": "in",
	"HK": "sg", "TW": "sg", "KR": "sg", "MY": "sg", "ID": "sg",
	"PH": "sg", "AU": "sg", "NZ": "sg",
}

// countryLanguage suggests a UI language per country. Countries not
// listed default to English.
var countryLanguage = map[string]string{
	"DE": "de",
	"FR": "fr",
	"ES": "es",
	"JP": "ja",
	"CN": "zh",
	"VN": "vi",
	"SA": "ar",
	"AE": "ar",
	"TH": "th",
	"PL": "pl",
	"IN": "hi",
}

var countryNames = map[string]string{
	"US": "United States",
	"CA": "Canada",
	"GB": "United Kingdom",
	"DE": "Germany",
	"FR": "France",
	"ES": "Spain",
	"IT": "Italy",
	"JP": "Japan",
	"CN": "China",
	"SG": "Singapore",
	"AE": "United Arab Emirates",
	"SA": "Saudi Arabia",
	"VN": "Vietnam",
	"TH": "Thailand",
	"PL": "Poland",
	"IN": "India",
}

// Handler serves GET /api/detect-region.
type Handler struct {
	now func() time.Time
}

// NewHandler wires the region handler.
func NewHandler() *Handler {
	return &Handler{now: time.Now}
}

// Get resolves the caller's region from the edge geo headers. Requests
// without the headers (local development, direct origin hits) fall back
// to the United States.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	country := r.Header.Get("x-vercel-ip-country")
	if country == "" {
		country = "US"
	}
	city := r.Header.Get("x-vercel-ip-city")

	region, ok := countryRegion[country]
	if !ok {
		region = "us"
	}
	lang, ok := countryLanguage[country]
	if !ok {
		lang = "en"
	}
	name, ok := countryNames[country]
	if !ok {
		name = country
	}

	api.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"detected":    true,
		"country":     country,
		"countryName": name,
		"city":        city,
		"region":      region,
		"language":    lang,
		"timestamp":   h.now().UTC().Format(time.RFC3339),
	})
}
