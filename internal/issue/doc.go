// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable errors: failures that name the operation
// and resource involved and can carry suggestions for the user.
package issue
