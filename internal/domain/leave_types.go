package domain

import "github.com/shopspring/decimal"

// Tipe cuti yang dikenal. Nilai disimpan apa adanya di kolom leave_type.
const (
	LeaveTypeAnnual      = "ANNUAL"
	LeaveTypeSick        = "SICK"
	LeaveTypePersonal    = "PERSONAL"
	LeaveTypeBereavement = "BEREAVEMENT"
	LeaveTypeParental    = "PARENTAL"
	LeaveTypeUnpaid      = "UNPAID"
)

var leaveTypes = []string{
	LeaveTypeAnnual,
	LeaveTypeSick,
	LeaveTypePersonal,
	LeaveTypeBereavement,
	LeaveTypeParental,
	LeaveTypeUnpaid,
}

var defaultAllowances = map[string]int64{
	LeaveTypeAnnual:      20,
	LeaveTypeSick:        10,
	LeaveTypePersonal:    5,
	LeaveTypeBereavement: 5,
	LeaveTypeParental:    90,
}

// LeaveTypes mengembalikan daftar tipe dalam urutan tetap.
func LeaveTypes() []string {
	out := make([]string, len(leaveTypes))
	copy(out, leaveTypes)
	return out
}

func ValidLeaveType(t string) bool {
	for _, known := range leaveTypes {
		if t == known {
			return true
		}
	}
	return false
}

// DefaultAllowance mengembalikan jatah awal per tipe dalam hari. Tipe tanpa
// saldo (UNPAID) mengembalikan ok=false.
func DefaultAllowance(t string) (decimal.Decimal, bool) {
	days, ok := defaultAllowances[t]
	if !ok {
		return decimal.Decimal{}, false
	}
	return decimal.NewFromInt(days), true
}

// BalanceExempt menandai tipe yang lolos cek dan debit saldo.
func BalanceExempt(t string) bool {
	return t == LeaveTypeUnpaid
}
