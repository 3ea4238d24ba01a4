package aws

import (
	"context"
	"fmt"
	"sync"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// DefaultSecretTTL bounds how long a rotated secret can stay stale in memory.
const DefaultSecretTTL = 15 * time.Minute

type secretsAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

type cachedSecret struct {
	value     string
	fetchedAt time.Time
}

// SecretsClient reads secrets from Secrets Manager and caches them for ttl.
type SecretsClient struct {
	client secretsAPI
	ttl    time.Duration
	now    func() time.Time

	mu    sync.RWMutex
	cache map[string]cachedSecret
}

func NewSecretsClient(cfg sdkaws.Config) *SecretsClient {
	return newSecretsClient(secretsmanager.NewFromConfig(cfg), DefaultSecretTTL)
}

func newSecretsClient(api secretsAPI, ttl time.Duration) *SecretsClient {
	return &SecretsClient{
		client: api,
		ttl:    ttl,
		now:    time.Now,
		cache:  make(map[string]cachedSecret),
	}
}

// GetSecret returns the current value of the named secret. Binary secrets are
// returned as their raw bytes.
func (s *SecretsClient) GetSecret(ctx context.Context, name string) (string, error) {
	if v, ok := s.cached(name); ok {
		return v, nil
	}

	out, err := s.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{SecretId: sdkaws.String(name)})
	if err != nil {
		return "", fmt.Errorf("failed to get secret %s: %w", name, err)
	}

	var value string
	switch {
	case out.SecretString != nil:
		value = *out.SecretString
	case len(out.SecretBinary) > 0:
		value = string(out.SecretBinary)
	default:
		return "", fmt.Errorf("secret %s has no value", name)
	}

	s.mu.Lock()
	s.cache[name] = cachedSecret{value: value, fetchedAt: s.now()}
	s.mu.Unlock()
	return value, nil
}

func (s *SecretsClient) cached(name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.cache[name]
	if !ok || s.now().Sub(entry.fetchedAt) >= s.ttl {
		return "", false
	}
	return entry.value, true
}
