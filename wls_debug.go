//go:build parallelism_debug

package parallelism

func assertStillLocal(stillLocal bool) {
	if !stillLocal {
		panic("parallelism: WorkerLocalStorage.Get called after ToRange")
	}
}
