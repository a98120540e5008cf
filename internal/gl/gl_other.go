//go:build !linux && !darwin && !windows

package gl

import (
	"fmt"
	"runtime"
)

func bind(procs) (OpenGL, error) {
	return nil, fmt.Errorf("gl: no binding for %s/%s", runtime.GOOS, runtime.GOARCH)
}
