package tatara

import "fmt"

// PortabilityClass states how widely a binary built with a profile can run.
type PortabilityClass string

const (
	// Portable binaries run on any reasonably modern x86-64 machine.
	Portable PortabilityClass = "portable"
	// Conditional binaries require the named instruction-set extension.
	Conditional PortabilityClass = "conditional"
	// MachineSpecific binaries are bound to the exact CPU of the build host.
	MachineSpecific PortabilityClass = "machine-specific"
)

// ArchProfile maps a symbolic architecture target to the concrete
// optimization flags passed to the compiler.
type ArchProfile struct {
	TargetID    string
	Flags       string
	Portability PortabilityClass
}

// archProfiles is the fixed lookup table. Resolution is pure: no probing of
// the running CPU happens here, the "host" entry delegates that to the
// compiler itself via -xHost.
var archProfiles = map[string]ArchProfile{
	"sse42": {
		TargetID:    "sse42",
		Flags:       "-xSSE4.2",
		Portability: Portable,
	},
	"avx2": {
		TargetID:    "avx2",
		Flags:       "-xCORE-AVX2",
		Portability: Conditional,
	},
	"avx512": {
		TargetID:    "avx512",
		Flags:       "-xCORE-AVX512 -qopt-zmm-usage=high",
		Portability: Conditional,
	},
	"host": {
		TargetID:    "host",
		Flags:       "-xHost",
		Portability: MachineSpecific,
	},
	// multi embeds an SSE4.2 baseline plus AVX2/AVX-512 code paths selected
	// at run time, so the binary stays runnable on older machines.
	"multi": {
		TargetID:    "multi",
		Flags:       "-axCORE-AVX512,CORE-AVX2 -xSSE4.2",
		Portability: Portable,
	},
}

// ResolveArch maps a symbolic architecture target to its profile. Unknown
// ids are a configuration error and are rejected before any compilation.
func ResolveArch(targetID string) (*ArchProfile, error) {
	prof, ok := archProfiles[targetID]
	if !ok {
		return nil, fmt.Errorf("%w: %q (valid: %s)", errUnknownArch, targetID, archTargetList())
	}
	return &prof, nil
}

// ArchTargets returns the valid target ids in a stable order.
func ArchTargets() []string {
	return []string{"sse42", "avx2", "avx512", "host", "multi"}
}

func archTargetList() string {
	list := ""
	for i, id := range ArchTargets() {
		if i > 0 {
			list += ", "
		}
		list += id
	}
	return list
}
