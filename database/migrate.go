package database

import (
	"fmt"

	"apidocs-admin/models"

	"gorm.io/gorm"
)

// Migrate applies idempotent schema migrations for the api_endpoints table:
// - AutoMigrate (table/columns)
// - Column defaults so rows written outside this service are never NULL
// - Rank index for the list ordering
func Migrate(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.AutoMigrate(&models.Endpoint{}); err != nil {
			return fmt.Errorf("automigrate failed: %w", err)
		}

		defaults := []string{
			`ALTER TABLE api_endpoints ALTER COLUMN name             SET DEFAULT ''`,
			`ALTER TABLE api_endpoints ALTER COLUMN endpoint         SET DEFAULT ''`,
			`ALTER TABLE api_endpoints ALTER COLUMN description      SET DEFAULT ''`,
			`ALTER TABLE api_endpoints ALTER COLUMN category         SET DEFAULT ''`,
			`ALTER TABLE api_endpoints ALTER COLUMN purpose          SET DEFAULT ''`,
			`ALTER TABLE api_endpoints ALTER COLUMN status           SET DEFAULT ''`,
			`ALTER TABLE api_endpoints ALTER COLUMN rank             SET DEFAULT 0`,
			`ALTER TABLE api_endpoints ALTER COLUMN methods          SET DEFAULT '{}'`,
			`ALTER TABLE api_endpoints ALTER COLUMN products         SET DEFAULT '{}'`,
			`ALTER TABLE api_endpoints ALTER COLUMN request_schema   SET DEFAULT '{}'::jsonb`,
			`ALTER TABLE api_endpoints ALTER COLUMN response_schema  SET DEFAULT '{}'::jsonb`,
			`ALTER TABLE api_endpoints ALTER COLUMN sample_request   SET DEFAULT '{}'::jsonb`,
			`ALTER TABLE api_endpoints ALTER COLUMN sample_response  SET DEFAULT '{}'::jsonb`,
			`ALTER TABLE api_endpoints ALTER COLUMN sample_responses SET DEFAULT '[]'::jsonb`,
			`ALTER TABLE api_endpoints ALTER COLUMN error_responses  SET DEFAULT '[]'::jsonb`,
			`ALTER TABLE api_endpoints ALTER COLUMN curl_example     SET DEFAULT '{}'::jsonb`,
			`ALTER TABLE api_endpoints ALTER COLUMN validation_notes SET DEFAULT '{}'::jsonb`,
			`ALTER TABLE api_endpoints ALTER COLUMN field_table      SET DEFAULT '{}'::jsonb`,
		}
		for _, stmt := range defaults {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("default migration failed on: %s - %w", stmt, err)
			}
		}

		indexes := []string{
			`CREATE INDEX IF NOT EXISTS idx_api_endpoints_rank ON api_endpoints (rank)`,
		}
		for _, stmt := range indexes {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("index migration failed on: %s - %w", stmt, err)
			}
		}

		return nil
	})
}
