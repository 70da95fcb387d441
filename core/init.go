package core

import "go.uber.org/automaxprocs/maxprocs"

// init wires GOMAXPROCS to the process's cgroup CPU quota (rather than the
// host's full core count) once, at package load, the same way the wider
// corpus's containerised services do. NewDefault's runtime.GOMAXPROCS(0)
// read therefore already reflects this, so no pool construction code needs
// to special-case container environments.
func init() {
	_, _ = maxprocs.Set()
}
