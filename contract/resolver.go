package contract

import (
	"context"
	"time"

	"github.com/oasislabs/quorum-functions/errors"
	"github.com/oasislabs/quorum-functions/log"
)

// Resolver provides the artifact of the contract the service
// operates on
type Resolver interface {
	Resolve(ctx context.Context) (*Artifact, errors.Err)
}

// CachedResolverServices are the collaborators of a CachedResolver
type CachedResolverServices struct {
	Logger  log.Logger
	Fetcher Fetcher
	Cache   Cache
}

// CachedResolverProps configure a CachedResolver
type CachedResolverProps struct {
	// URL of the artifact document
	URL string

	// TTL is how long a fetched document is served from the cache
	TTL time.Duration
}

// CachedResolver resolves the artifact stored at a URL, keeping the
// fetched document in a cache keyed by URL
type CachedResolver struct {
	logger  log.Logger
	fetcher Fetcher
	cache   Cache
	url     string
	ttl     time.Duration
}

// NewCachedResolver creates a new CachedResolver. Without a cache
// every call to Resolve fetches the document
func NewCachedResolver(services *CachedResolverServices, props *CachedResolverProps) *CachedResolver {
	cache := services.Cache
	if cache == nil {
		cache = NoCache{}
	}

	return &CachedResolver{
		logger:  services.Logger.ForClass("contract", "CachedResolver"),
		fetcher: services.Fetcher,
		cache:   cache,
		url:     props.URL,
		ttl:     props.TTL,
	}
}

// Resolve implementation of Resolver for CachedResolver. A cache
// failure is logged and the document fetched from the store
func (r *CachedResolver) Resolve(ctx context.Context) (*Artifact, errors.Err) {
	p, ok, err := r.cache.Get(ctx, r.url)
	if err != nil {
		r.logger.Warn(ctx, "failed to read artifact cache", log.MapFields{
			"call_type": "ResolveArtifactCacheFailure",
			"url":       r.url,
			"err":       err.Error(),
		})
	}

	if ok {
		artifact, err := ParseArtifact(p)
		if err == nil {
			return artifact, nil
		}

		r.logger.Warn(ctx, "cached artifact is malformed", log.MapFields{
			"call_type": "ResolveArtifactCacheFailure",
			"url":       r.url,
		}, err)
	}

	p, ferr := r.fetcher.Fetch(ctx, r.url)
	if ferr != nil {
		return nil, ferr
	}

	artifact, perr := ParseArtifact(p)
	if perr != nil {
		r.logger.Debug(ctx, "failed to parse artifact", log.MapFields{
			"call_type": "ResolveArtifactFailure",
			"url":       r.url,
		}, perr)
		return nil, perr
	}

	if err := r.cache.Set(ctx, r.url, p, r.ttl); err != nil {
		r.logger.Warn(ctx, "failed to write artifact cache", log.MapFields{
			"call_type": "ResolveArtifactCacheFailure",
			"url":       r.url,
			"err":       err.Error(),
		})
	}

	r.logger.Debug(ctx, "", log.MapFields{
		"call_type": "ResolveArtifactSuccess",
		"url":       r.url,
	})

	return artifact, nil
}
