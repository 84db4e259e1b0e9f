// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/invowk/multicall/cmd/multicall"

func main() {
	cmd.Execute()
}
