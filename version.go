package weave

// version of the deal ledger, following semver.
const version = "v0.1.0-dev"

// GitCommit is set with -ldflags at build time.
var GitCommit = ""

// Version returns the version reported by the node and the CLI.
func Version() string {
	if GitCommit == "" {
		return version
	}
	return version + " " + GitCommit
}
