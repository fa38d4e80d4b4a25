package leave

import (
	"context"

	"github.com/shopspring/decimal"
)

const (
	PolicyDecisionManual      = "manual_approval"
	PolicyDecisionAutoApprove = "auto_approve"
)

// ApprovalPolicy diajak bicara sekali saat submit, untuk memutuskan apakah
// hop PENDING -> APPROVED_PENDING_SYNC langsung dijalankan atas nama policy.
// Implementasi bisa ditukar lewat env tanpa menyentuh mesin status.
type ApprovalPolicy interface {
	Decide(ctx context.Context, req *LeaveRequest, res Resolution) string
}

// ManualPolicy: semua request menunggu approver.
type ManualPolicy struct{}

func (ManualPolicy) Decide(ctx context.Context, req *LeaveRequest, res Resolution) string {
	return PolicyDecisionManual
}

// ShortLeavePolicy menyetujui otomatis request eligible non-eskalasi yang
// durasinya tidak melebihi MaxDays.
type ShortLeavePolicy struct {
	MaxDays decimal.Decimal
}

func (p ShortLeavePolicy) Decide(ctx context.Context, req *LeaveRequest, res Resolution) string {
	if res.Outcome != OutcomeEligible {
		return PolicyDecisionManual
	}
	if req.ApprovalTier == TierHR {
		return PolicyDecisionManual
	}
	if req.Days.GreaterThan(p.MaxDays) {
		return PolicyDecisionManual
	}
	return PolicyDecisionAutoApprove
}

// PolicyByName memilih implementasi dari nilai env APPROVAL_POLICY.
func PolicyByName(name string, autoApproveMaxDays decimal.Decimal) ApprovalPolicy {
	if name == "short_leave" {
		return ShortLeavePolicy{MaxDays: autoApproveMaxDays}
	}
	return ManualPolicy{}
}
