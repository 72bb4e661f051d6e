package version

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// CheckConfigCompatibility checks whether a config file written for
// configVersion can be read by a build at buildVersion.
//
// Compatibility Rules:
//   - If either version is "main" (development build), the check is skipped
//   - Major versions must match exactly
//   - The config's minor version must not be newer than the build's, since a
//     newer minor may introduce keys this build does not know
//   - Patch versions are ignored
//
// Examples:
//   - Build 1.2.0, Config 1.2.0 -> OK
//   - Build 1.3.0, Config 1.2.4 -> OK (older config)
//   - Build 1.2.0, Config 1.3.0 -> ERROR (config is newer)
//   - Build 2.0.0, Config 1.2.0 -> ERROR (major differs)
func CheckConfigCompatibility(buildVersion, configVersion string) error {
	buildVersion = strings.TrimPrefix(buildVersion, "v")
	configVersion = strings.TrimPrefix(configVersion, "v")

	if buildVersion == "main" || configVersion == "main" {
		return nil
	}

	build, err := semver.NewVersion(buildVersion)
	if err != nil {
		return fmt.Errorf("invalid build version '%s': %w", buildVersion, err)
	}

	cfg, err := semver.NewVersion(configVersion)
	if err != nil {
		return fmt.Errorf("invalid config version '%s': %w", configVersion, err)
	}

	if build.Major() != cfg.Major() {
		return fmt.Errorf("major version mismatch: build is %d.x.x but config was written for %d.x.x",
			build.Major(), cfg.Major())
	}

	if cfg.Minor() > build.Minor() {
		return fmt.Errorf("config version %d.%d.x is newer than build %d.%d.x",
			cfg.Major(), cfg.Minor(), build.Major(), build.Minor())
	}

	return nil
}
