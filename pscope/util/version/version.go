package version

import "fmt"

const (
	MAJOR_VERSION = 0
	MINOR_VERSION = 3
	VERSION       = "PolicyScope"
)

var COMMIT = ""

func Version() string {
	return fmt.Sprintf("%s %d.%02d %s", VERSION, MAJOR_VERSION, MINOR_VERSION, COMMIT)
}
