package plc

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Parameter name suffixes under the configured store prefix.
const (
	SuffixDeviceAddress = "ip-address"
	SuffixTopic         = "mqtt-topic"
	SuffixGatewayID     = "gateway-id"
)

// maxCacheTTL bounds how stale a resolved parameter set may get: an
// operator rotating the device address must not keep hitting the old one.
const maxCacheTTL = 60 * time.Second

// ParameterSource fetches encrypted parameter values by name in one
// batched call.
type ParameterSource interface {
	FetchBatch(ctx context.Context, names []string) (map[string]string, error)
}

// Decrypter opens values encrypted at rest. *crypto.Encryptor satisfies it.
type Decrypter interface {
	Decrypt(ciphertext string) (string, error)
}

// Resolver fetches and decrypts the three device connection parameters.
// Caching is optional and off by default (ttl 0): correctness wants
// just-in-time freshness, the cache only bounds resolution latency.
type Resolver struct {
	source ParameterSource
	dec    Decrypter
	prefix string
	ttl    time.Duration

	mu        sync.Mutex
	cached    SecureParameters
	fetchedAt time.Time
}

func NewResolver(source ParameterSource, dec Decrypter, prefix string, ttl time.Duration) *Resolver {
	if ttl > maxCacheTTL {
		ttl = maxCacheTTL
	}
	return &Resolver{source: source, dec: dec, prefix: prefix, ttl: ttl}
}

// Resolve returns the full parameter set or a *ConfigurationError
// naming every parameter that is missing or unreadable.
func (r *Resolver) Resolve(ctx context.Context) (SecureParameters, error) {
	if r.ttl > 0 {
		r.mu.Lock()
		if !r.fetchedAt.IsZero() && time.Since(r.fetchedAt) < r.ttl {
			params := r.cached
			r.mu.Unlock()
			return params, nil
		}
		r.mu.Unlock()
	}

	names := []string{
		r.name(SuffixDeviceAddress),
		r.name(SuffixTopic),
		r.name(SuffixGatewayID),
	}
	raw, err := r.source.FetchBatch(ctx, names)
	if err != nil {
		return SecureParameters{}, &ConfigurationError{Err: fmt.Errorf("fetch secure parameters: %w", err)}
	}

	var missing []string
	get := func(suffix string) string {
		name := r.name(suffix)
		encrypted, ok := raw[name]
		if !ok || encrypted == "" {
			missing = append(missing, name)
			return ""
		}
		value, err := r.dec.Decrypt(encrypted)
		if err != nil {
			missing = append(missing, name)
			return ""
		}
		return value
	}

	params := SecureParameters{
		DeviceAddress: get(SuffixDeviceAddress),
		Topic:         get(SuffixTopic),
		GatewayID:     get(SuffixGatewayID),
	}
	if len(missing) > 0 {
		return SecureParameters{}, &ConfigurationError{Missing: missing}
	}

	if r.ttl > 0 {
		r.mu.Lock()
		r.cached = params
		r.fetchedAt = time.Now()
		r.mu.Unlock()
	}
	return params, nil
}

func (r *Resolver) name(suffix string) string {
	return r.prefix + "/" + suffix
}
