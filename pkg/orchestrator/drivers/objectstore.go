package drivers

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// HTTPObjectStoreManager manages per-instance buckets and their dedicated
// access principal against an object store's admin control API: a
// session-cookie login followed by user/policy/bucket CRUD (spec.md §6).
type HTTPObjectStoreManager struct {
	http            http.Client
	adminEndpoint   string
	rootAccessKey   string
	rootSecretKey   string
	sessionCookie   string
}

// NewHTTPObjectStoreManager builds an ObjectStoreManager authenticated with
// the store's root credentials.
func NewHTTPObjectStoreManager(adminEndpoint, rootAccessKey, rootSecretKey string) *HTTPObjectStoreManager {
	return &HTTPObjectStoreManager{
		http:          http.Client{Timeout: 30 * time.Second},
		adminEndpoint: adminEndpoint,
		rootAccessKey: rootAccessKey,
		rootSecretKey: rootSecretKey,
	}
}

type loginRequest struct {
	AccessKey string `json:"accessKey"`
	SecretKey string `json:"secretKey"`
}

// login establishes an admin session, caching the returned cookie for reuse
// across calls within this manager's lifetime.
func (m *HTTPObjectStoreManager) login(ctx context.Context) (string, error) {
	if m.sessionCookie != "" {
		return m.sessionCookie, nil
	}
	c := newHTTPClient(m.adminEndpoint, "", &m.http)
	var resp struct {
		SessionID string `json:"sessionId"`
	}
	req := loginRequest{AccessKey: m.rootAccessKey, SecretKey: m.rootSecretKey}
	if err := c.do(ctx, http.MethodPost, "/api/v1/login", req, &resp); err != nil {
		return "", fmt.Errorf("logging into object store admin API: %w", err)
	}
	m.sessionCookie = resp.SessionID
	return m.sessionCookie, nil
}

func (m *HTTPObjectStoreManager) client(ctx context.Context) (httpClient, error) {
	session, err := m.login(ctx)
	if err != nil {
		return httpClient{}, err
	}
	return newHTTPClient(m.adminEndpoint, session, &m.http), nil
}

type createBucketRequest struct {
	Name string `json:"name"`
}

type createUserRequest struct {
	AccessKey string `json:"accessKey"`
	SecretKey string `json:"secretKey"`
}

type setPolicyRequest struct {
	PolicyName string `json:"policyName"`
	AccessKey  string `json:"accessKey"`
}

// ProvisionBucket creates a bucket and a dedicated principal scoped to it.
// Idempotent: the admin API's create calls are themselves check-then-act,
// so re-running after a partial failure converges rather than erroring.
func (m *HTTPObjectStoreManager) ProvisionBucket(ctx context.Context, name, accessKey, secretKey string) error {
	c, err := m.client(ctx)
	if err != nil {
		return err
	}

	if err := c.do(ctx, http.MethodPut, "/api/v1/buckets/"+name, createBucketRequest{Name: name}, nil); err != nil {
		return fmt.Errorf("creating bucket %s: %w", name, err)
	}

	if err := c.do(ctx, http.MethodPut, "/api/v1/users/"+accessKey, createUserRequest{AccessKey: accessKey, SecretKey: secretKey}, nil); err != nil {
		return fmt.Errorf("creating principal for bucket %s: %w", name, err)
	}

	policyName := "policy-" + name
	if err := c.do(ctx, http.MethodPut, "/api/v1/set-user-policy", setPolicyRequest{PolicyName: policyName, AccessKey: accessKey}, nil); err != nil {
		return fmt.Errorf("attaching policy for bucket %s: %w", name, err)
	}
	return nil
}

func (m *HTTPObjectStoreManager) DeprovisionBucket(ctx context.Context, name, accessKey string) error {
	c, err := m.client(ctx)
	if err != nil {
		return err
	}

	if err := c.do(ctx, http.MethodDelete, "/api/v1/users/"+accessKey, nil, nil); !isNotFound(err) && err != nil {
		return fmt.Errorf("removing principal for bucket %s: %w", name, err)
	}

	if err := c.do(ctx, http.MethodDelete, "/api/v1/buckets/"+name+"?force=true", nil, nil); !isNotFound(err) && err != nil {
		return fmt.Errorf("removing bucket %s: %w", name, err)
	}
	return nil
}

type listObjectsResponse struct {
	Objects []struct {
		Key string `json:"key"`
	} `json:"objects"`
}

// VerifyBucket exercises real read permission with the instance's own
// credentials via a list call, rather than a HEAD that could pass on a 403.
func (m *HTTPObjectStoreManager) VerifyBucket(ctx context.Context, name, accessKey, secretKey string) (bool, error) {
	c := newHTTPClient(m.adminEndpoint, "", &m.http)
	var resp listObjectsResponse
	path := fmt.Sprintf("/s3/%s?list-type=2&accessKey=%s&secretKey=%s", name, accessKey, secretKey)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return false, nil
	}
	return true, nil
}
