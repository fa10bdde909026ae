package pgstore

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"

	"github.com/dwarvesf/walletpay-backend/internal/utils/config"
	"github.com/dwarvesf/walletpay-backend/internal/utils/logger"
)

// New opens the application database and exits the process if it cannot.
func New(appConfig *config.AppConfig, logger *logger.Logger) *gorm.DB {
	db, err := Open(DSN(appConfig.Postgres))
	if err != nil {
		logger.Fatal("[pgstore.New][Open] failed to connect to postgres", map[string]string{
			"error": err.Error(),
		})
	}

	logger.Info("[pgstore.New] database connected", map[string]string{
		"host": appConfig.Postgres.Host,
		"name": appConfig.Postgres.Name,
	})
	return db
}

func DSN(c config.DBConnection) string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.Host,
		c.User,
		c.Pass,
		c.Name,
		c.Port,
		c.SSLMode,
	)
}

// Open accepts either a key/value DSN or a postgres:// URL.
func Open(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(dsn),
		&gorm.Config{
			NamingStrategy: schema.NamingStrategy{
				SingularTable: false,
			},
			TranslateError: true,
		})
}
