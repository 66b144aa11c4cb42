package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

var configEnvVars = []string{
	"HOTLAP_CONFIG",
	"HOTLAP_LOG_LEVEL",
	"HOTLAP_ADDR",
	"HOTLAP_DATA_DIR",
	"HOTLAP_RECORDS_FILE",
	"HOTLAP_GHOST_DIR",
	"HOTLAP_GHOST_EXT",
	"HOTLAP_MAX_GHOST_BYTES",
	"HOTLAP_S3_ENDPOINT",
	"HOTLAP_S3_ACCESS_KEY",
	"HOTLAP_S3_SECRET_KEY",
	"HOTLAP_S3_BUCKET",
	"HOTLAP_S3_SECURE",
}

func clearConfigEnvVars(t *testing.T) {
	t.Helper()
	for _, v := range configEnvVars {
		if err := os.Unsetenv(v); err != nil {
			t.Fatalf("failed to unset %s: %v", v, err)
		}
	}
}

func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	Convey("Given a clean environment", t, func() {
		clearConfigEnvVars(t)
		ctx := context.Background()

		Convey("When loading with no file and no env", func() {
			cfg, err := Load(ctx)

			Convey("Then defaults apply", func() {
				So(err, ShouldBeNil)
				So(cfg.LogLevel, ShouldEqual, "info")
				So(cfg.Addr, ShouldEqual, ":9080")
				So(cfg.DataDir, ShouldEqual, "data")
				So(cfg.RecordsFile, ShouldEqual, "records.json")
				So(cfg.GhostDir, ShouldEqual, "ghosts")
				So(cfg.GhostExt, ShouldEqual, "tsreplay")
				So(cfg.MaxGhostBytes, ShouldEqual, int64(32<<20))
				So(cfg.S3Bucket, ShouldEqual, "hotlap-ghosts")
				So(cfg.UseS3(), ShouldBeFalse)
			})
		})

		Convey("When a config file is provided", func() {
			path := createTempConfigFile(t, "addr: \":7070\"\nlog_level: debug\nghost_ext: replay\n")
			t.Setenv("HOTLAP_CONFIG", path)

			cfg, err := Load(ctx)

			Convey("Then file values override defaults", func() {
				So(err, ShouldBeNil)
				So(cfg.Addr, ShouldEqual, ":7070")
				So(cfg.LogLevel, ShouldEqual, "debug")
				So(cfg.GhostExt, ShouldEqual, "replay")
				So(cfg.DataDir, ShouldEqual, "data")
			})
		})

		Convey("When env vars are set on top of a file", func() {
			path := createTempConfigFile(t, "addr: \":7070\"\n")
			t.Setenv("HOTLAP_CONFIG", path)
			t.Setenv("HOTLAP_ADDR", ":6060")
			t.Setenv("HOTLAP_DATA_DIR", "/var/lib/hotlap")

			cfg, err := Load(ctx)

			Convey("Then env takes precedence over the file", func() {
				So(err, ShouldBeNil)
				So(cfg.Addr, ShouldEqual, ":6060")
				So(cfg.DataDir, ShouldEqual, "/var/lib/hotlap")
			})
		})

		Convey("When S3 credentials are complete", func() {
			t.Setenv("HOTLAP_S3_ENDPOINT", "minio.local:9000")
			t.Setenv("HOTLAP_S3_ACCESS_KEY", "ak")
			t.Setenv("HOTLAP_S3_SECRET_KEY", "sk")

			cfg, err := Load(ctx)

			Convey("Then the remote backend is selected", func() {
				So(err, ShouldBeNil)
				So(cfg.UseS3(), ShouldBeTrue)
			})
		})

		Convey("When S3 credentials are partial", func() {
			t.Setenv("HOTLAP_S3_ENDPOINT", "minio.local:9000")

			cfg, err := Load(ctx)

			Convey("Then the disk backend is kept", func() {
				So(err, ShouldBeNil)
				So(cfg.UseS3(), ShouldBeFalse)
			})
		})

		Convey("When the addr is blanked out", func() {
			t.Setenv("HOTLAP_ADDR", "")
			path := createTempConfigFile(t, "addr: \"\"\n")
			t.Setenv("HOTLAP_CONFIG", path)

			_, err := Load(ctx)

			Convey("Then validation fails", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "addr")
			})
		})

		Convey("When the config file does not exist", func() {
			t.Setenv("HOTLAP_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

			_, err := Load(ctx)

			Convey("Then loading fails with a load error", func() {
				So(err, ShouldNotBeNil)
				So(errors.Is(err, ErrLoadConfig), ShouldBeTrue)
			})
		})
	})
}

func TestConfigPaths(t *testing.T) {
	Convey("Given a default config", t, func() {
		cfg := New()

		Convey("Relative paths resolve under the data dir", func() {
			So(cfg.RecordsPath(), ShouldEqual, filepath.Join("data", "records.json"))
			So(cfg.GhostPath(), ShouldEqual, filepath.Join("data", "ghosts"))
		})

		Convey("Absolute paths are used verbatim", func() {
			cfg.RecordsFile = "/srv/hotlap/records.json"
			cfg.GhostDir = "/srv/hotlap/ghosts"
			So(cfg.RecordsPath(), ShouldEqual, "/srv/hotlap/records.json")
			So(cfg.GhostPath(), ShouldEqual, "/srv/hotlap/ghosts")
		})
	})
}
