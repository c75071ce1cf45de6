package sqlite

import (
	"database/sql"
	"errors"
	"time"

	api_v1 "github.com/inboxops/relay/api/v1"
	"github.com/inboxops/relay/model"
	"github.com/inboxops/relay/persistence"
)

var _ persistence.CredentialDao = new(sqliteCredentialDao)

type sqliteCredentialDao struct {
	baseDao
}

func NewSqliteCredentialDao(db *sql.DB) *sqliteCredentialDao {
	return &sqliteCredentialDao{baseDao: baseDao{db: db}}
}

// Save overwrites the whole blob for the (org, integration) pair; there is no
// partial update of credential material.
func (dao *sqliteCredentialDao) Save(orgId string, integration string, sealed []byte) error {
	_, err := dao.db.Exec(`INSERT INTO credentials(org_id, integration, secret, updated_at)
		VALUES(?,?,?,?)
		ON CONFLICT(org_id, integration) DO UPDATE SET secret=excluded.secret, updated_at=excluded.updated_at`,
		orgId, integration, sealed, time.Now().Unix())
	if err != nil {
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}

func (dao *sqliteCredentialDao) Get(orgId string, integration string) ([]byte, error) {
	var sealed []byte
	err := dao.db.QueryRow(`SELECT secret FROM credentials WHERE org_id = ? AND integration = ?`,
		orgId, integration).Scan(&sealed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, api_v1.CredentialMissingError{Integration: integration}
	}
	if err != nil {
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	return sealed, nil
}

func (dao *sqliteCredentialDao) ListStatus(orgId string) ([]model.CredentialStatus, error) {
	rows, err := dao.db.Query(`SELECT integration, updated_at FROM credentials WHERE org_id = ? ORDER BY integration`, orgId)
	if err != nil {
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	defer rows.Close()
	var statuses []model.CredentialStatus
	for rows.Next() {
		status := model.CredentialStatus{Configured: true}
		if err := rows.Scan(&status.Integration, &status.UpdatedAt); err != nil {
			return nil, persistence.StorageLayerError{Message: err.Error()}
		}
		statuses = append(statuses, status)
	}
	return statuses, rows.Err()
}
