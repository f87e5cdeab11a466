//go:build !parallelism_debug

package parallelism

func assertStillLocal(stillLocal bool) {}
