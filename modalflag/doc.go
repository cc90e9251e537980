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


// Package modalflag is a wrapper for the flag package in the Go standard
// library. It provides a method of handling program modes (and sub-modes)
// with different flags for each mode.
//
// Arguments are given to NewArgs() and then parsed with Parse(). Flags and
// sub-modes must be added before the call to Parse(). After a successful
// Parse(), further sub-modes and flags can be handled by calling NewMode()
// and then Parse() again on the remaining arguments. For example:
//
//	md := modalflag.Modes{Output: os.Stdout}
//	md.NewArgs(os.Args[1:])
//	md.AddSubModes("RUN", "SCRIPT")
//	trace := md.AddBool("trace", false, "trace bus activity")
//
//	switch r, err := md.Parse(); r {
//	case modalflag.ParseHelp:
//		return
//	case modalflag.ParseError:
//		return err
//	}
//
//	switch md.Mode() {
//	case "RUN":
//		md.NewMode()
//		cycles := md.AddInt("cycles", 1000, "number of cycles to run")
//		...
//	}
//
// The first sub-mode in the list is the default. Sub-mode names are case
// insensitive and are always reported in upper case. The -help flag prints
// the flags and sub-modes of the current mode to the Output writer.
package modalflag
