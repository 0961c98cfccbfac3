package distance

import (
	"runtime"

	"golang.org/x/sys/cpu"
)

var (
	dotImpl       = dotGeneric
	squaredL2Impl = squaredL2Generic
	kernelName    = "generic"
)

func init() {
	// Both kernels are portable Go. The CPU feature check is only a width
	// heuristic: cores that report wide vector units are also wide enough to
	// keep four independent accumulators busy. On narrow targets the scalar
	// loop is as fast and has less tail handling.
	wide := (runtime.GOARCH == "amd64" && cpu.X86.HasAVX2) ||
		(runtime.GOARCH == "arm64" && cpu.ARM64.HasASIMD)
	if wide {
		useUnrolled()
	}
}

func useUnrolled() {
	dotImpl = dotUnrolled
	squaredL2Impl = squaredL2Unrolled
	kernelName = "unrolled4"
}

// Kernel reports the kernel selected for this process: "generic" or
// "unrolled4".
func Kernel() string {
	return kernelName
}

func dotGeneric(a, b []float32) float32 {
	var ret float32
	for i := range a {
		ret += a[i] * b[i]
	}

	return ret
}

func squaredL2Generic(a, b []float32) float32 {
	var distance float32
	for i := range a {
		diff := a[i] - b[i]
		distance += diff * diff
	}

	return distance
}

func dotUnrolled(a, b []float32) float32 {
	n := len(a)
	b = b[:n]

	var s0, s1, s2, s3 float32
	i := 0
	for ; i+4 <= n; i += 4 {
		s0 += a[i] * b[i]
		s1 += a[i+1] * b[i+1]
		s2 += a[i+2] * b[i+2]
		s3 += a[i+3] * b[i+3]
	}
	for ; i < n; i++ {
		s0 += a[i] * b[i]
	}

	return (s0 + s1) + (s2 + s3)
}

func squaredL2Unrolled(a, b []float32) float32 {
	n := len(a)
	b = b[:n]

	var s0, s1, s2, s3 float32
	i := 0
	for ; i+4 <= n; i += 4 {
		d0 := a[i] - b[i]
		d1 := a[i+1] - b[i+1]
		d2 := a[i+2] - b[i+2]
		d3 := a[i+3] - b[i+3]
		s0 += d0 * d0
		s1 += d1 * d1
		s2 += d2 * d2
		s3 += d3 * d3
	}
	for ; i < n; i++ {
		d := a[i] - b[i]
		s0 += d * d
	}

	return (s0 + s1) + (s2 + s3)
}
