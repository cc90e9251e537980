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


// Package paths contains functions to prepare paths to ahbfabric resources,
// such as the preferences file.
//
// The ResourcePath() function prepends the supplied resource with the
// configuration directory. For development builds that is the .ahbfabric
// directory in the current working directory. For builds with the "release"
// build tag it is the ahbfabric directory in the user's configuration
// directory. For example:
//
//	/home/user/.config/ahbfabric/preferences
//
// Directories are created as required. Files are not touched.
package paths
