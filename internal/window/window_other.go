//go:build !linux && !darwin && !windows && !js && !glfw

package window

import (
	"fmt"
	"runtime"
)

// Open reports that no native backend exists for this target. Building with
// -tags glfw provides one wherever GLFW runs.
func Open() (EventLoop, error) {
	return nil, fmt.Errorf("no native window backend for %s/%s; build with -tags glfw", runtime.GOOS, runtime.GOARCH)
}
