// SPDX-License-Identifier: Apache-2.0

package models

import "fmt"

// AccessLevel describes what a member is allowed to do with a shared
// collection. It is enforced by the server only: every holder of the
// collection key is cryptographically capable of reading and writing,
// so demoting a member without rotating the key is an authorization
// change, not a confidentiality change.
type AccessLevel string

const (
	// AccessLevelAdmin grants full control, including managing members.
	AccessLevelAdmin AccessLevel = "adm"

	// AccessLevelReadWrite grants item read and write access.
	AccessLevelReadWrite AccessLevel = "rw"

	// AccessLevelReadOnly grants item read access.
	AccessLevelReadOnly AccessLevel = "ro"
)

// Validate reports whether the access level is one of the known wire
// values.
func (a AccessLevel) Validate() error {
	switch a {
	case AccessLevelAdmin, AccessLevelReadWrite, AccessLevelReadOnly:
		return nil
	}
	return fmt.Errorf("unknown access level %q", string(a))
}
