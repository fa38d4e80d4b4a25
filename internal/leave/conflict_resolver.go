package leave

import (
	"leavehub/internal/domain"

	"github.com/shopspring/decimal"
)

const (
	OutcomeEligible                    = "eligible"
	OutcomeRejectedOverlap             = "rejected_overlap"
	OutcomeRejectedInsufficientBalance = "rejected_insufficient_balance"
	OutcomeRequiresEscalatedApproval   = "requires_escalated_approval"
)

// Resolution adalah hasil pemeriksaan kelayakan sebuah kandidat request.
type Resolution struct {
	Outcome string
	Reason  string
}

// ResolverInput dikumpulkan oleh caller dari ledger; resolver sendiri tidak
// menyentuh I/O sehingga keputusannya deterministik dan mudah diuji.
type ResolverInput struct {
	Request *LeaveRequest
	// Balance adalah sisa saldo untuk tipe cuti kandidat. BalanceKnown false
	// berarti tidak ada baris saldo untuk tipe tersebut.
	Balance      decimal.Decimal
	BalanceKnown bool
	// HasOverlap true bila rentang kandidat menyentuh request approved milik
	// karyawan yang sama. Request PENDING karyawan lain tidak pernah saling
	// memblokir; urutan persetujuan yang memutuskan.
	HasOverlap  bool
	TeamSize    int
	TeamOnLeave int
}

// ConflictResolver memeriksa overlap, saldo, dan ambang absen tim.
type ConflictResolver struct {
	teamAbsenceThreshold float64
}

func NewConflictResolver(teamAbsenceThreshold float64) *ConflictResolver {
	if teamAbsenceThreshold <= 0 {
		teamAbsenceThreshold = 0.30
	}
	return &ConflictResolver{teamAbsenceThreshold: teamAbsenceThreshold}
}

func (r *ConflictResolver) Resolve(in ResolverInput) Resolution {
	if in.HasOverlap {
		return Resolution{
			Outcome: OutcomeRejectedOverlap,
			Reason:  "span overlaps an approved leave for this employee",
		}
	}

	if !domain.BalanceExempt(in.Request.LeaveType) {
		remaining := decimal.Zero
		if in.BalanceKnown {
			remaining = in.Balance
		}
		if in.Request.Days.GreaterThan(remaining) {
			return Resolution{
				Outcome: OutcomeRejectedInsufficientBalance,
				Reason:  "requested days exceed the remaining balance",
			}
		}
	}

	// Kandidat dihitung ikut absen; melewati ambang berarti butuh tier hr,
	// bukan penolakan. Persetujuan yang sudah terjadi tidak pernah dibatalkan
	// retroaktif oleh pelanggaran ambang berikutnya.
	if in.TeamSize > 0 {
		absence := float64(in.TeamOnLeave+1) / float64(in.TeamSize)
		if absence > r.teamAbsenceThreshold {
			return Resolution{
				Outcome: OutcomeRequiresEscalatedApproval,
				Reason:  "team concurrent absence would exceed the configured threshold",
			}
		}
	}

	return Resolution{Outcome: OutcomeEligible}
}
