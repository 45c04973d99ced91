// Package misc keeps program identification, values may be overwritten at
// link time with -X.
package misc

var (
	appName = "mpdom"
	version = "dev"
	gitHash = "unknown"
)

func GetAppName() string {
	return appName
}

func GetVersion() string {
	return version
}

func GetGitHash() string {
	return gitHash
}
