// This file is part of AHBFabric.
//
// AHBFabric is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// AHBFabric is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with AHBFabric.  If not, see <https://www.gnu.org/licenses/>.


package performance

import (
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
	"runtime/trace"
	"strings"

	"github.com/jetsetilly/ahbfabric/curated"
	"github.com/jetsetilly/ahbfabric/paths"
)

// Profile specifies which profiles are to be made.
type Profile int

// List of valid Profile values. Values can be combined.
const (
	ProfileNone  Profile = 0
	ProfileCPU   Profile = 0b0001
	ProfileMem   Profile = 0b0010
	ProfileTrace Profile = 0b0100
	ProfileAll   Profile = ProfileCPU | ProfileMem | ProfileTrace
)

// UnknownProfile is the pattern for errors returned by ParseProfileString().
const UnknownProfile = "profile: unknown profile type (%s)"

// ParseProfileString converts a comma separated list of profile names
// (NONE, CPU, MEM, TRACE, ALL) into a Profile value.
func ParseProfileString(profile string) (Profile, error) {
	p := ProfileNone
	for _, s := range strings.Split(profile, ",") {
		switch strings.ToUpper(strings.TrimSpace(s)) {
		case "NONE", "":
		case "CPU":
			p |= ProfileCPU
		case "MEM":
			p |= ProfileMem
		case "TRACE":
			p |= ProfileTrace
		case "ALL":
			p = ProfileAll
		default:
			return ProfileNone, curated.Errorf(UnknownProfile, s)
		}
	}
	return p, nil
}

func (p Profile) String() string {
	if p == ProfileNone {
		return "none"
	}
	var s []string
	if p&ProfileCPU == ProfileCPU {
		s = append(s, "cpu")
	}
	if p&ProfileMem == ProfileMem {
		s = append(s, "mem")
	}
	if p&ProfileTrace == ProfileTrace {
		s = append(s, "trace")
	}
	return strings.Join(s, ",")
}

// RunProfiler runs the supplied function with the profiles specified. The
// profile files are named with filenameHeader and a timestamp.
func RunProfiler(profile Profile, filenameHeader string, run func() error) (rerr error) {
	create := func(kind string) (*os.File, error) {
		fn := fmt.Sprintf("%s.profile", paths.UniqueFilename(filenameHeader, kind))
		f, err := os.Create(fn)
		if err != nil {
			return nil, fmt.Errorf("%s profile: %w", kind, err)
		}
		return f, nil
	}

	closer := func(f *os.File) {
		if err := f.Close(); err != nil && rerr == nil {
			rerr = err
		}
	}

	if profile&ProfileCPU == ProfileCPU {
		f, err := create("cpu")
		if err != nil {
			return err
		}
		defer closer(f)

		if err := pprof.StartCPUProfile(f); err != nil {
			return fmt.Errorf("cpu profile: %w", err)
		}
		defer pprof.StopCPUProfile()
	}

	if profile&ProfileTrace == ProfileTrace {
		f, err := create("trace")
		if err != nil {
			return err
		}
		defer closer(f)

		if err := trace.Start(f); err != nil {
			return fmt.Errorf("trace profile: %w", err)
		}
		defer trace.Stop()
	}

	err := run()

	if profile&ProfileMem == ProfileMem {
		f, ferr := create("mem")
		if ferr != nil {
			return ferr
		}
		defer closer(f)

		runtime.GC()
		if ferr := pprof.WriteHeapProfile(f); ferr != nil {
			return fmt.Errorf("mem profile: %w", ferr)
		}
	}

	return err
}
