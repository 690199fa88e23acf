package scheduler

import (
	"context"
	"time"

	"github.com/spec-kit/supportdesk/internal/service"
)

// EntitlementExpirySweep downgrades cancelled grants whose paid period has
// run out. The read-time expiry check in the resolver already hides such
// grants; the sweep makes the downgrade durable and emits the event.
type EntitlementExpirySweep struct {
	entitlements *service.EntitlementService
}

// NewEntitlementExpirySweep constructs the sweep.
func NewEntitlementExpirySweep(entitlements *service.EntitlementService) *EntitlementExpirySweep {
	return &EntitlementExpirySweep{entitlements: entitlements}
}

// Run performs one pass.
func (s *EntitlementExpirySweep) Run(ctx context.Context, _ time.Time) (int, error) {
	tenants, err := s.entitlements.SweepExpiredCancellations(ctx)
	if err != nil {
		return 0, err
	}
	return len(tenants), nil
}
