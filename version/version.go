package version

import "fmt"

// these values are set via ldflags during the build
var (
	Version   = "dev"
	GitCommit = "none"
	BuildDate = "unknown"
)

var FullVersion = fmt.Sprintf("%s Build: %s Commit: %s", Version, BuildDate, GitCommit)
