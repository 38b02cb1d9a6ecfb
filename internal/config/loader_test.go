package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/cobj/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		// Point .env loading at a file that does not exist unless a case sets one.
		_ = os.Setenv(config.EnvDotenvFile, filepath.Join(t.TempDir(), "missing.env"))
		defer clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.ListenAddr(), convey.ShouldEqual, ":3000")
				convey.So(cfg.ObjectType, convey.ShouldEqual, "2-51544776")
				convey.So(cfg.Properties, convey.ShouldResemble, []string{"name", "house", "family_type"})
				convey.So(cfg.HasCredential(), convey.ShouldBeFalse)
			})
		})

		convey.Convey("When loading config with the unprefixed variable names", func() {
			_ = os.Setenv("PRIVATE_APP_ACCESS", "pat-na1-123")
			_ = os.Setenv("PORT", "4000")

			cfg, err := config.Load(ctx)

			convey.Convey("Then the credential and port should be picked up", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.AccessToken, convey.ShouldEqual, "pat-na1-123")
				convey.So(cfg.Port, convey.ShouldEqual, 4000)
				convey.So(cfg.ListenAddr(), convey.ShouldEqual, ":4000")
				convey.So(cfg.HasCredential(), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with prefixed environment variables", func() {
			_ = os.Setenv("COBJ_ACCESS_TOKEN", "pat-prefixed")
			_ = os.Setenv("COBJ_OBJECT_TYPE", "2-999")
			_ = os.Setenv("COBJ_PROPERTIES", "name, colour ,,size")
			_ = os.Setenv("COBJ_LIST_LIMIT", "25")
			_ = os.Setenv("COBJ_REQUEST_TIMEOUT", "3s")
			_ = os.Setenv("COBJ_BASE_URL", "http://localhost:9999")
			_ = os.Setenv("COBJ_LOG_FORMAT", "json")

			cfg, err := config.Load(ctx)

			convey.Convey("Then they should override defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.AccessToken, convey.ShouldEqual, "pat-prefixed")
				convey.So(cfg.ObjectType, convey.ShouldEqual, "2-999")
				convey.So(cfg.Properties, convey.ShouldResemble, []string{"name", "colour", "size"})
				convey.So(cfg.ListLimit, convey.ShouldEqual, 25)
				convey.So(cfg.RequestTimeout, convey.ShouldEqual, 3*time.Second)
				convey.So(cfg.BaseURL, convey.ShouldEqual, "http://localhost:9999")
				convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
			})
		})

		convey.Convey("When both the unprefixed and the prefixed names are set", func() {
			_ = os.Setenv("PRIVATE_APP_ACCESS", "pat-legacy")
			_ = os.Setenv("COBJ_ACCESS_TOKEN", "pat-prefixed")

			cfg, err := config.Load(ctx)

			convey.Convey("Then the prefixed name should win", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.AccessToken, convey.ShouldEqual, "pat-prefixed")
			})
		})

		convey.Convey("When loading config with a YAML file", func() {
			tmpFile := createTempFile(t, "cobj-*.yaml", `
port: 8088
object_type: "2-777"
properties:
  - title
  - owner
list_limit: 50
request_timeout: 2s
`)
			_ = os.Setenv(config.EnvConfigFile, tmpFile)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from the file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Port, convey.ShouldEqual, 8088)
				convey.So(cfg.ObjectType, convey.ShouldEqual, "2-777")
				convey.So(cfg.Properties, convey.ShouldResemble, []string{"title", "owner"})
				convey.So(cfg.ListLimit, convey.ShouldEqual, 50)
				convey.So(cfg.RequestTimeout, convey.ShouldEqual, 2*time.Second)
				convey.So(cfg.BaseURL, convey.ShouldEqual, "https://api.hubapi.com") // From defaults
			})

			convey.Convey("And environment variables should override the file", func() {
				_ = os.Setenv("COBJ_LIST_LIMIT", "10")

				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.ListLimit, convey.ShouldEqual, 10)
				convey.So(cfg.ObjectType, convey.ShouldEqual, "2-777")
			})
		})

		convey.Convey("When loading a .env file", func() {
			dotenv := createTempFile(t, "cobj-*.env", "PRIVATE_APP_ACCESS=pat-from-dotenv\nPORT=5050\n")
			_ = os.Setenv(config.EnvDotenvFile, dotenv)

			cfg, err := config.Load(ctx)

			convey.Convey("Then its values should be used", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.AccessToken, convey.ShouldEqual, "pat-from-dotenv")
				convey.So(cfg.Port, convey.ShouldEqual, 5050)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempFile(t, "cobj-*.yaml", `invalid: yaml: content: [`)
			_ = os.Setenv(config.EnvConfigFile, tmpFile)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv(config.EnvConfigFile, "/non/existent/file.yaml")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("COBJ_LIST_LIMIT", "lots")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with an empty property list", func() {
			_ = os.Setenv("COBJ_PROPERTIES", " , ")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		config.EnvConfigFile,
		config.EnvDotenvFile,
		"PRIVATE_APP_ACCESS",
		"PORT",
		"COBJ_ADDR",
		"COBJ_PORT",
		"COBJ_ACCESS_TOKEN",
		"COBJ_BASE_URL",
		"COBJ_OBJECT_TYPE",
		"COBJ_PROPERTIES",
		"COBJ_LIST_LIMIT",
		"COBJ_REQUEST_TIMEOUT",
		"COBJ_LOG_LEVEL",
		"COBJ_LOG_FORMAT",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempFile(t *testing.T, pattern, content string) string {
	t.Helper()
	tmpFile, err := os.CreateTemp(t.TempDir(), pattern)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tmpFile.WriteString(content); err != nil {
		t.Fatal(err)
	}
	if err := tmpFile.Close(); err != nil {
		t.Fatal(err)
	}
	return tmpFile.Name()
}
