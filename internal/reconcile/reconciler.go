package reconcile

import (
	"context"
	"fmt"

	"github.com/roach88/lineage/internal/config"
)

// Reconciler implements the ensure-claim pattern against one external
// store. Safe for concurrent use; the cache check preceding AddClaim
// bounds the engine to at most one creation per fingerprint per process
// lifetime, and the durable cache extends that across restarts.
type Reconciler struct {
	client  ClaimClient
	cache   IDCache
	limiter *Limiter
	breaker *Breaker
}

// New wires a reconciler from configuration. The cache should normally
// be a LayeredCache over the ledger's claim_cache table.
func New(cfg config.Config, client ClaimClient, cache IDCache) *Reconciler {
	return &Reconciler{
		client:  client,
		cache:   cache,
		limiter: NewLimiter(cfg.RatePerSecond, cfg.MinCallSpacing()),
		breaker: NewBreaker(cfg.BreakerFailureThreshold, cfg.BreakerWindow(), cfg.BreakerCooldown()),
	}
}

// EnsureClaim guarantees the external store holds exactly one claim
// equivalent to c and returns its external id. Repeated calls with the
// same logical claim are side-effect-free reads: a cache hit, or a
// fetch-compare that performs no write.
func (r *Reconciler) EnsureClaim(ctx context.Context, c Claim) (string, error) {
	fp, err := Fingerprint(c)
	if err != nil {
		return "", err // ValidationError; not retried
	}

	if id, ok, err := r.cache.Get(ctx, fp); err != nil {
		return "", fmt.Errorf("ensure claim: %w", err)
	} else if ok {
		return id, nil
	}

	// Cache miss: fetch what the store already has and compare
	// structurally before considering a write.
	existing, err := r.getClaims(ctx, c)
	if err != nil {
		return "", err
	}

	for _, ec := range existing {
		ecFP, err := Fingerprint(ec.Claim)
		if err != nil {
			// A malformed remote claim cannot be the one we would have
			// written; skip it rather than fail the ensure.
			continue
		}
		if ecFP == fp {
			if err := r.cache.Put(ctx, fp, ec.ID); err != nil {
				return "", fmt.Errorf("ensure claim: cache equivalent: %w", err)
			}
			return ec.ID, nil
		}
	}

	id, err := r.addClaim(ctx, c)
	if err != nil {
		return "", err
	}
	if err := r.cache.Put(ctx, fp, id); err != nil {
		return "", fmt.Errorf("ensure claim: cache created id: %w", err)
	}
	return id, nil
}

func (r *Reconciler) getClaims(ctx context.Context, c Claim) ([]ExternalClaim, error) {
	if err := r.breaker.Allow(); err != nil {
		return nil, err
	}
	if err := r.limiter.Wait(ctx); err != nil {
		r.breaker.Cancel() // the store was never contacted
		return nil, err
	}
	claims, err := r.client.GetClaims(ctx, c.EntityID, c.Property)
	r.breaker.Record(err)
	if err != nil {
		return nil, fmt.Errorf("ensure claim: get claims: %w", err)
	}
	return claims, nil
}

func (r *Reconciler) addClaim(ctx context.Context, c Claim) (string, error) {
	if err := r.breaker.Allow(); err != nil {
		return "", err
	}
	if err := r.limiter.Wait(ctx); err != nil {
		r.breaker.Cancel()
		return "", err
	}
	id, err := r.client.AddClaim(ctx, c)
	r.breaker.Record(err)
	if err != nil {
		return "", fmt.Errorf("ensure claim: add claim: %w", err)
	}
	return id, nil
}
