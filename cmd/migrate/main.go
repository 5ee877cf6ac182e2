package main

import (
	"errors"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Usage: migrate [up|down [N]|version]. The SQL targets PostgreSQL; MySQL
// deployments keep DB_AUTO_MIGRATE=true instead.
func main() {
	_ = godotenv.Load()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		logrus.Fatal("DATABASE_URL is not set")
	}
	source := os.Getenv("MIGRATIONS_PATH")
	if source == "" {
		source = "file://db/migrations"
	}

	m, err := migrate.New(source, dsn)
	if err != nil {
		logrus.Fatalf("migration setup failed: %v", err)
	}
	defer m.Close()

	cmd := "up"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	switch cmd {
	case "up":
		err = m.Up()
	case "down":
		steps := 1
		if len(os.Args) > 2 {
			if steps, err = strconv.Atoi(os.Args[2]); err != nil || steps < 1 {
				logrus.Fatalf("invalid step count %q", os.Args[2])
			}
		}
		err = m.Steps(-steps)
	case "version":
		version, dirty, verr := m.Version()
		if verr != nil && !errors.Is(verr, migrate.ErrNilVersion) {
			logrus.Fatalf("failed to read version: %v", verr)
		}
		logrus.WithFields(logrus.Fields{"version": version, "dirty": dirty}).Info("schema version")
		return
	default:
		logrus.Fatalf("unknown command %q (want up, down or version)", cmd)
	}

	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logrus.Fatalf("database migration %s failed: %v", cmd, err)
	}
	logrus.WithField("command", cmd).Info("database migrations applied")
}
