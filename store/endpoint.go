package store

import (
	"context"

	"apidocs-admin/apierrors"
	"apidocs-admin/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EndpointStore is the datastore surface used by the handlers and the
// export command. Every call goes straight to the database.
type EndpointStore interface {
	List(ctx context.Context) ([]models.Endpoint, error)
	Upsert(ctx context.Context, endpoint *models.Endpoint) error
}

type GormEndpointStore struct {
	db  *gorm.DB
	log logrus.FieldLogger
}

// Make sure we conform to EndpointStore interface
var _ EndpointStore = (*GormEndpointStore)(nil)

func NewGormEndpointStore(db *gorm.DB, log logrus.FieldLogger) *GormEndpointStore {
	return &GormEndpointStore{db: db, log: log}
}

// List returns every record ordered by rank. No rows is an empty slice.
func (s *GormEndpointStore) List(ctx context.Context) ([]models.Endpoint, error) {
	endpoints := []models.Endpoint{}
	result := s.db.WithContext(ctx).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "rank"}}).
		Find(&endpoints)
	s.log.Debugf("db.Find(api_endpoints): %d rows, error is %v", result.RowsAffected, result.Error)
	if result.Error != nil {
		return nil, &apierrors.StoreError{Message: "Failed to fetch endpoints", Err: result.Error}
	}
	return endpoints, nil
}

// Upsert inserts the record or replaces every mapped column of the row with
// the same id. Concurrent writers are not coordinated; the last one wins.
func (s *GormEndpointStore) Upsert(ctx context.Context, endpoint *models.Endpoint) error {
	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(endpoint)
	s.log.Debugf("db.Upsert(%s): %d rows affected, error is %v", endpoint.Id, result.RowsAffected, result.Error)
	if result.Error != nil {
		return &apierrors.StoreError{Message: "Failed to save endpoint", Err: result.Error}
	}
	return nil
}
