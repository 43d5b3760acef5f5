package stub

import (
	"context"
	"sync"
)

// DnsProvider is an in-memory drivers.DnsProvider.
type DnsProvider struct {
	parent *Set

	mu      sync.Mutex
	records map[string]string // subdomain -> ip
}

func (d *DnsProvider) CreateARecord(ctx context.Context, subdomain, ip string) error {
	if err := d.parent.record("CreateARecord", subdomain, ip); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.records == nil {
		d.records = map[string]string{}
	}
	d.records[subdomain] = ip
	return nil
}

func (d *DnsProvider) VerifyARecord(ctx context.Context, subdomain string) (bool, error) {
	if err := d.parent.record("VerifyARecord", subdomain); err != nil {
		return false, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.records[subdomain]
	return ok, nil
}

func (d *DnsProvider) DeleteARecord(ctx context.Context, subdomain string) error {
	if err := d.parent.record("DeleteARecord", subdomain); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.records, subdomain)
	return nil
}
