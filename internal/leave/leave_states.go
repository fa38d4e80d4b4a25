package leave

// CanTransition melaporkan apakah perpindahan status diizinkan oleh mesin
// status. Pasangan ilegal ditolak sinkron, tidak pernah diantrikan: request
// yang sudah SYNCED tidak bisa ditarik (withdraw), hanya bisa di-revert.
func CanTransition(currentStatus, targetStatus string) bool {
	if currentStatus == targetStatus {
		return false
	}

	switch currentStatus {
	case StatusDraft:
		return targetStatus == StatusPending || targetStatus == StatusWithdrawn
	case StatusPending:
		return targetStatus == StatusApprovedPendingSync ||
			targetStatus == StatusRejected ||
			targetStatus == StatusWithdrawn
	case StatusApprovedPendingSync:
		return targetStatus == StatusSynced ||
			targetStatus == StatusApprovedSyncFailed ||
			targetStatus == StatusReverted
	case StatusSynced:
		return targetStatus == StatusReverted
	case StatusApprovedSyncFailed:
		// Redrive membuka kembali jendela sync.
		return targetStatus == StatusApprovedPendingSync || targetStatus == StatusReverted
	default:
		// REJECTED, WITHDRAWN, REVERTED adalah status akhir.
		return false
	}
}

// BalanceDebitedStatuses adalah status tersimpan yang saldonya sudah didebit.
// Pemeriksaan overlap dan kredit saat revert hanya melihat status-status ini.
func BalanceDebitedStatuses() []string {
	return []string{StatusApprovedPendingSync, StatusSynced, StatusApprovedSyncFailed}
}

// ActiveStatuses adalah status yang masih relevan untuk jadwal ke depan.
func ActiveStatuses() []string {
	return []string{
		StatusDraft,
		StatusPending,
		StatusApprovedPendingSync,
		StatusSynced,
		StatusApprovedSyncFailed,
	}
}

// TerminalStatuses adalah status akhir yang dipertahankan sebagai riwayat.
func TerminalStatuses() []string {
	return []string{StatusRejected, StatusWithdrawn, StatusReverted}
}
