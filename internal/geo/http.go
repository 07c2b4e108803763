package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/tbourn/go-link-tracker/internal/domain"
)

// maxBody caps how much of a provider response is read.
const maxBody = 64 << 10

// HTTPResolver queries an ip-api.com compatible JSON endpoint.
type HTTPResolver struct {
	endpoint string // contains one %s for the IP
	client   *http.Client
}

// NewHTTPResolver returns a resolver for endpoint, e.g.
// "http://ip-api.com/json/%s". A nil client uses http.DefaultClient.
func NewHTTPResolver(endpoint string, client *http.Client) *HTTPResolver {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPResolver{endpoint: endpoint, client: client}
}

type ipAPIResponse struct {
	Status      string  `json:"status"`
	Message     string  `json:"message"`
	Country     string  `json:"country"`
	CountryCode string  `json:"countryCode"`
	Region      string  `json:"region"`
	RegionName  string  `json:"regionName"`
	City        string  `json:"city"`
	Zip         string  `json:"zip"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	Timezone    string  `json:"timezone"`
	ISP         string  `json:"isp"`
	Org         string  `json:"org"`
	AS          string  `json:"as"`
}

// Lookup fetches geolocation for ip. A provider-reported failure (for
// example a reserved range) yields (nil, nil); transport errors, non-200
// statuses and malformed bodies yield an error.
func (r *HTTPResolver) Lookup(ctx context.Context, ip string) (*domain.GeoInfo, error) {
	target := fmt.Sprintf(r.endpoint, url.PathEscape(ip))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBody))
		return nil, fmt.Errorf("geo provider status %d", resp.StatusCode)
	}

	var out ipAPIResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBody)).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode geo response: %w", err)
	}
	if !strings.EqualFold(out.Status, "success") {
		return nil, nil
	}

	return &domain.GeoInfo{
		Country:     out.Country,
		CountryCode: strings.ToUpper(strings.TrimSpace(out.CountryCode)),
		Region:      out.Region,
		RegionName:  out.RegionName,
		City:        out.City,
		Zip:         out.Zip,
		Lat:         out.Lat,
		Lon:         out.Lon,
		Timezone:    out.Timezone,
		ISP:         out.ISP,
		Org:         out.Org,
		AS:          out.AS,
	}, nil
}
