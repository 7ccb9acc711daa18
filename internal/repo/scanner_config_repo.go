package repo

import (
	"context"

	"github.com/dushixiang/argus/internal/models"
	"github.com/go-orz/orz"
	"gorm.io/gorm"
)

func NewScannerConfigRepo(db *gorm.DB) *ScannerConfigRepo {
	return &ScannerConfigRepo{
		Repository: orz.NewRepository[models.ScannerConfig, string](db),
	}
}

type ScannerConfigRepo struct {
	orz.Repository[models.ScannerConfig, string]
}

// FindFirst 获取扫描配置，配置表只有一行
func (r ScannerConfigRepo) FindFirst(ctx context.Context) (m models.ScannerConfig, err error) {
	db := r.GetDB(ctx)
	err = db.Table(r.GetTableName()).First(&m).Error
	return m, err
}
