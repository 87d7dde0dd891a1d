package resolver

import (
	"github.com/ethpandaops/shiftgraph/pkg/observability"
	"github.com/sirupsen/logrus"
)

// Optimize marks variants of a scope whose execution ID matches an earlier variant of the
// same scope as aliases of it. The nominal variant is always the alias target when it
// matches; otherwise the first shift by name is. Optimize is idempotent.
func (r *Resolution) Optimize() error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if !r.validated {
		return ErrNotValidated
	}

	if r.optimized {
		return nil
	}

	total := 0
	for _, scope := range r.scopes {
		// keys are ordered nominal first, then shifts by name
		targets := make(map[string]string)
		aliased := 0

		for _, key := range r.keys {
			if key.scope != scope {
				continue
			}

			state := r.states[key]
			if target, exists := targets[state.fingerprint]; exists {
				state.aliasOf = target
				aliased++
				continue
			}

			targets[state.fingerprint] = key.shift
		}

		observability.RecordAliases(scope, aliased)
		total += aliased

		r.log.WithFields(logrus.Fields{
			"scope":      scope,
			"aliased":    aliased,
			"executions": len(targets),
		}).Debug("Deduplicated scope")
	}

	r.optimized = true

	r.log.WithField("aliased", total).Info("Optimized configuration")

	return nil
}

// Aliases returns, for every aliased variant of scope, the shift whose execution it reuses
func (r *Resolution) Aliases(scope string) map[string]string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	out := make(map[string]string)
	for _, key := range r.keys {
		if key.scope != scope {
			continue
		}
		if state, ok := r.states[key]; ok && state.aliasOf != "" {
			out[key.shift] = state.aliasOf
		}
	}

	return out
}
