package main

// TODO:
// - Profiling (Benchmarking) !! https://blog.golang.org/pprof
// - APM/Tracing
// - rate limit the un-authed endpoints
func main() {
	startWithDig()
}
