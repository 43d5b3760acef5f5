package stub

import (
	"context"
	"sync"
)

type bucketPrincipal struct {
	accessKey string
	secretKey string
}

// ObjectStoreManager is an in-memory drivers.ObjectStoreManager.
type ObjectStoreManager struct {
	parent *Set

	mu      sync.Mutex
	buckets map[string]bucketPrincipal
}

func (o *ObjectStoreManager) ProvisionBucket(ctx context.Context, name, accessKey, secretKey string) error {
	if err := o.parent.record("ProvisionBucket", name, accessKey); err != nil {
		return err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.buckets == nil {
		o.buckets = map[string]bucketPrincipal{}
	}
	o.buckets[name] = bucketPrincipal{accessKey: accessKey, secretKey: secretKey}
	return nil
}

func (o *ObjectStoreManager) DeprovisionBucket(ctx context.Context, name, accessKey string) error {
	if err := o.parent.record("DeprovisionBucket", name, accessKey); err != nil {
		return err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.buckets, name)
	return nil
}

func (o *ObjectStoreManager) VerifyBucket(ctx context.Context, name, accessKey, secretKey string) (bool, error) {
	if err := o.parent.record("VerifyBucket", name, accessKey); err != nil {
		return false, err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	p, ok := o.buckets[name]
	return ok && p.accessKey == accessKey && p.secretKey == secretKey, nil
}
