package calendar

import (
	"context"
	"time"
)

// BusyBlock merepresentasikan satu blok sibuk di kalender tim untuk rentang
// cuti seorang karyawan. RequestTag diisi id request supaya provider bisa
// melakukan lookup idempoten.
type BusyBlock struct {
	Summary       string
	EmployeeEmail string
	StartDate     time.Time
	EndDate       time.Time
	RequestTag    string
}

// Adapter menulis dan menghapus blok sibuk di kalender eksternal. Error yang
// dikembalikan selalu terklasifikasi transient atau permanent.
type Adapter interface {
	CreateBusyBlock(ctx context.Context, block BusyBlock, idempotencyKey string) (eventID string, err error)
	DeleteBusyBlock(ctx context.Context, eventID string) error
}
