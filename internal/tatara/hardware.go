package tatara

import (
	"bufio"
	"os"
	"runtime"
	"strings"
)

// SuggestArchTarget inspects the build host's CPU and returns the widest
// architecture target it can run. Used when the operator asks for "auto";
// ResolveArch itself stays a pure table lookup.
func SuggestArchTarget() string {
	if runtime.GOARCH != "amd64" {
		return "sse42"
	}

	flags := make(map[string]bool)
	file, err := os.Open("/proc/cpuinfo")
	if err == nil {
		defer file.Close()
		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			line := scanner.Text()
			if strings.HasPrefix(line, "flags") {
				parts := strings.SplitN(line, ":", 2)
				if len(parts) >= 2 {
					for _, f := range strings.Fields(parts[1]) {
						flags[f] = true
					}
				}
				// Only need the first processor entry
				break
			}
		}
	}

	switch {
	case flags["avx512f"]:
		return "avx512"
	case flags["avx2"]:
		return "avx2"
	default:
		return "sse42"
	}
}
