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

// Package logger is the central log repository for AHBFabric. There is only
// one log for the entire application and entries are added with the Log() and
// Logf() functions.
//
// Every call requires a Permission. Components that only log when being
// traced pass their tracing permission. Components that always log pass
// logger.Allow.
//
// Repeated entries with the same tag and detail are collapsed into a single
// entry with a repeat count.
package logger
