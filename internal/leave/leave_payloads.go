package leave

// Payload record dibuat self-contained saat penjadwalan: executor tidak
// membaca ulang tabel domain, cukup decode payload ini.

type calendarCreatePayload struct {
	Summary       string `json:"summary"`
	EmployeeEmail string `json:"employee_email"`
	StartDate     string `json:"start_date"`
	EndDate       string `json:"end_date"`
	RequestTag    string `json:"request_tag"`
}

// Event id tidak ikut disimpan di sini; executor mengambilnya dari result
// record calendar_create yang sukses.
type calendarDeletePayload struct {
	RequestTag string `json:"request_tag"`
}

type notifyPayload struct {
	Kind           string `json:"kind"`
	RecipientID    string `json:"recipient_id"`
	RecipientPhone string `json:"recipient_phone"`
	Body           string `json:"body"`
	RequestNumber  string `json:"request_number"`
}
