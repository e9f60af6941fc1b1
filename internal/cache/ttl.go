package cache

import "time"

// TTLPolicy computes entry TTLs from query complexity and payload
// characteristics rather than a fixed constant.
type TTLPolicy struct {
	Base time.Duration // default 5 minutes
	Max  time.Duration // absolute cap, default 30 minutes
}

// DefaultTTLPolicy returns the standard policy.
func DefaultTTLPolicy() TTLPolicy {
	return TTLPolicy{Base: 5 * time.Minute, Max: 30 * time.Minute}
}

// complexityFactors scale the base TTL. More complex answers are more
// expensive to recompute and change less with small corpus updates.
var complexityFactors = map[Complexity]float64{
	ComplexitySimple:      0.5,
	ComplexityModerate:    1.0,
	ComplexityComplex:     2.0,
	ComplexityVeryComplex: 3.0,
}

// analyticalBonus extends TTL for analytical payloads.
const analyticalBonus = 1.5

// TTL computes the entry TTL for the given tag, strictly increasing with
// complexity, capped at Max.
func (p TTLPolicy) TTL(tag Complexity, analytical bool) time.Duration {
	factor, ok := complexityFactors[tag]
	if !ok {
		factor = 1.0
	}
	if analytical {
		factor *= analyticalBonus
	}

	ttl := time.Duration(float64(p.Base) * factor)
	if ttl > p.Max {
		ttl = p.Max
	}
	return ttl
}
