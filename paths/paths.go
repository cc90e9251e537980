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


package paths

import (
	"path/filepath"
)

// ResourcePath returns the path to a resource in the configuration
// directory. The directories in subPth are created if necessary. Either
// argument can be empty.
func ResourcePath(subPth string, file string) (string, error) {
	b, err := getBasePath(subPth)
	if err != nil {
		return "", err
	}
	return filepath.Join(b, file), nil
}
