package employee

import (
	"context"

	"leavehub/internal/team"

	"gorm.io/gorm"
)

type Repository interface {
	CreateWithBalances(ctx context.Context, empl *Employee, balances []LeaveBalance) error
	FindAll(ctx context.Context, teamFilter string) ([]Employee, error)
	FindByID(ctx context.Context, id string) (*Employee, error)
	FindByEmail(ctx context.Context, email string) (*Employee, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// CreateWithBalances menulis karyawan dan saldo awalnya dalam satu transaksi.
func (r *repository) CreateWithBalances(ctx context.Context, empl *Employee, balances []LeaveBalance) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(empl).Error; err != nil {
			return err
		}
		if len(balances) > 0 {
			if err := tx.Create(&balances).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *repository) FindAll(ctx context.Context, teamFilter string) ([]Employee, error) {
	var empls []Employee
	q := r.db.WithContext(ctx)
	if teamFilter != "" {
		q = q.Scopes(team.Scope(teamFilter))
	}
	err := q.Order("full_name asc").Find(&empls).Error
	return empls, err
}

func (r *repository) FindByID(ctx context.Context, id string) (*Employee, error) {
	var empl Employee
	err := r.db.WithContext(ctx).First(&empl, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &empl, nil
}

func (r *repository) FindByEmail(ctx context.Context, email string) (*Employee, error) {
	var empl Employee
	err := r.db.WithContext(ctx).First(&empl, "email = ?", email).Error
	if err != nil {
		return nil, err
	}
	return &empl, nil
}
