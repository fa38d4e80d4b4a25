package leave_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"leavehub/internal/leave"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    string
		to      string
		allowed bool
	}{
		{"draft can be submitted", leave.StatusDraft, leave.StatusPending, true},
		{"draft can be withdrawn", leave.StatusDraft, leave.StatusWithdrawn, true},
		{"draft cannot be approved directly", leave.StatusDraft, leave.StatusApprovedPendingSync, false},
		{"pending can be approved", leave.StatusPending, leave.StatusApprovedPendingSync, true},
		{"pending can be rejected", leave.StatusPending, leave.StatusRejected, true},
		{"pending can be withdrawn", leave.StatusPending, leave.StatusWithdrawn, true},
		{"pending cannot jump to synced", leave.StatusPending, leave.StatusSynced, false},
		{"approved pending sync can finish", leave.StatusApprovedPendingSync, leave.StatusSynced, true},
		{"approved pending sync can fail", leave.StatusApprovedPendingSync, leave.StatusApprovedSyncFailed, true},
		{"approved pending sync can be reverted", leave.StatusApprovedPendingSync, leave.StatusReverted, true},
		{"approved pending sync cannot be withdrawn", leave.StatusApprovedPendingSync, leave.StatusWithdrawn, false},
		{"synced can be reverted", leave.StatusSynced, leave.StatusReverted, true},
		{"synced cannot be withdrawn", leave.StatusSynced, leave.StatusWithdrawn, false},
		{"sync failed can be redriven", leave.StatusApprovedSyncFailed, leave.StatusApprovedPendingSync, true},
		{"sync failed can be reverted", leave.StatusApprovedSyncFailed, leave.StatusReverted, true},
		{"rejected is terminal", leave.StatusRejected, leave.StatusPending, false},
		{"withdrawn is terminal", leave.StatusWithdrawn, leave.StatusPending, false},
		{"reverted is terminal", leave.StatusReverted, leave.StatusApprovedPendingSync, false},
		{"same status is never a transition", leave.StatusPending, leave.StatusPending, false},
		{"unknown status is rejected", "LIMBO", leave.StatusPending, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.allowed, leave.CanTransition(tc.from, tc.to))
		})
	}
}

func TestStatusGroups(t *testing.T) {
	assert.ElementsMatch(t,
		[]string{leave.StatusApprovedPendingSync, leave.StatusSynced, leave.StatusApprovedSyncFailed},
		leave.BalanceDebitedStatuses(),
	)
	assert.Len(t, leave.ActiveStatuses(), 5)
	assert.ElementsMatch(t,
		[]string{leave.StatusRejected, leave.StatusWithdrawn, leave.StatusReverted},
		leave.TerminalStatuses(),
	)

	// Setiap status aktif punya jalan keluar.
	for _, status := range leave.ActiveStatuses() {
		hasExit := false
		for _, target := range []string{
			leave.StatusPending,
			leave.StatusApprovedPendingSync,
			leave.StatusSynced,
			leave.StatusApprovedSyncFailed,
			leave.StatusRejected,
			leave.StatusWithdrawn,
			leave.StatusReverted,
		} {
			if leave.CanTransition(status, target) {
				hasExit = true
				break
			}
		}
		assert.True(t, hasExit, "status %s has no exit", status)
	}

	// Status terminal tidak punya jalan keluar sama sekali.
	for _, status := range leave.TerminalStatuses() {
		for _, target := range leave.ActiveStatuses() {
			assert.False(t, leave.CanTransition(status, target), "%s -> %s", status, target)
		}
	}
}
