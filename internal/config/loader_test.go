package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/teamsite/internal/config"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func clearConfigEnvVars() {
	for _, kv := range os.Environ() {
		if key, _, ok := strings.Cut(kv, "="); ok && strings.HasPrefix(key, "TEAMSITE_") {
			_ = os.Unsetenv(key)
		}
	}
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		clearConfigEnvVars()
		convey.Reset(clearConfigEnvVars)

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.LoadWithDotenv("")

			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
			convey.So(cfg.DatabaseDriver, convey.ShouldEqual, config.DriverMemory)
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("TEAMSITE_ADDR", ":9090")
			_ = os.Setenv("TEAMSITE_SYNC_QUEUE_SIZE", "8")
			_ = os.Setenv("TEAMSITE_SYNC_INTERVAL_S", "3600")
			_ = os.Setenv("TEAMSITE_TEAM_KEY", "frc9999")

			cfg, err := config.LoadWithDotenv("")

			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
			convey.So(cfg.SyncQueueSize, convey.ShouldEqual, 8)
			convey.So(cfg.SyncIntervalS, convey.ShouldEqual, 3600)
			convey.So(cfg.TeamKey, convey.ShouldEqual, "frc9999")
		})

		convey.Convey("When loading config with a YAML file", func() {
			path := writeFile(t, "teamsite.yaml", `
addr: ":7070"
database_driver: postgres
database_dsn: postgres://localhost/teamsite
sync_worker_count: 4
`)
			_ = os.Setenv("TEAMSITE_CONFIG", path)

			cfg, err := config.LoadWithDotenv("")

			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
			convey.So(cfg.DatabaseDriver, convey.ShouldEqual, config.DriverPostgres)
			convey.So(cfg.SyncWorkerCount, convey.ShouldEqual, 4)

			convey.Convey("Then env vars still win over the file", func() {
				_ = os.Setenv("TEAMSITE_ADDR", ":6060")
				cfg, err := config.LoadWithDotenv("")
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":6060")
			})
		})

		convey.Convey("When a .env file supplies secrets", func() {
			path := writeFile(t, ".env", "TEAMSITE_ADMIN_TOKEN=from-dotenv\nTEAMSITE_RESULTS_API_KEY=abc\n")
			_ = os.Setenv("TEAMSITE_RESULTS_API_KEY", "from-env")

			cfg, err := config.LoadWithDotenv(path)

			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.AdminToken, convey.ShouldEqual, "from-dotenv")
			convey.So(cfg.ResultsAPIKey, convey.ShouldEqual, "from-env")
		})

		convey.Convey("When the .env file is missing", func() {
			_, err := config.LoadWithDotenv(filepath.Join(t.TempDir(), ".env"))
			convey.So(err, convey.ShouldBeNil)
		})

		convey.Convey("When the YAML file does not exist", func() {
			_ = os.Setenv("TEAMSITE_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
			_, err := config.LoadWithDotenv("")
			convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When the result is invalid", func() {
			_ = os.Setenv("TEAMSITE_DATABASE_DRIVER", "postgres")
			_, err := config.LoadWithDotenv("")
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
		})
	})
}
