package drivers

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// HTTPDnsProvider manages zone-scoped A records via a DNS provider's
// record-CRUD API (spec.md §6).
type HTTPDnsProvider struct {
	http http.Client
	base string
	zone string
	key  string
}

// NewHTTPDnsProvider builds a DnsProvider for the given zone.
func NewHTTPDnsProvider(endpoint, apiKey, zone string) *HTTPDnsProvider {
	return &HTTPDnsProvider{
		http: http.Client{Timeout: 15 * time.Second},
		base: endpoint,
		zone: zone,
		key:  apiKey,
	}
}

func (d *HTTPDnsProvider) client() httpClient {
	return newHTTPClient(d.base, d.key, &d.http)
}

type aRecordRequest struct {
	Type    string `json:"type"`
	Name    string `json:"name"`
	Content string `json:"content"`
	TTL     int    `json:"ttl"`
}

func (d *HTTPDnsProvider) CreateARecord(ctx context.Context, subdomain, ip string) error {
	req := aRecordRequest{Type: "A", Name: subdomain, Content: ip, TTL: 300}
	path := fmt.Sprintf("/zones/%s/dns_records", d.zone)
	if err := d.client().do(ctx, http.MethodPost, path, req, nil); err != nil {
		return fmt.Errorf("creating A record for %s: %w", subdomain, err)
	}
	return nil
}

type listRecordsResponse struct {
	Records []struct {
		Name string `json:"name"`
	} `json:"records"`
}

func (d *HTTPDnsProvider) VerifyARecord(ctx context.Context, subdomain string) (bool, error) {
	var resp listRecordsResponse
	path := fmt.Sprintf("/zones/%s/dns_records?name=%s&type=A", d.zone, subdomain)
	if err := d.client().do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return false, fmt.Errorf("verifying A record for %s: %w", subdomain, err)
	}
	return len(resp.Records) > 0, nil
}

func (d *HTTPDnsProvider) DeleteARecord(ctx context.Context, subdomain string) error {
	path := fmt.Sprintf("/zones/%s/dns_records/%s", d.zone, subdomain)
	err := d.client().do(ctx, http.MethodDelete, path, nil, nil)
	if isNotFound(err) {
		return nil
	}
	return err
}
