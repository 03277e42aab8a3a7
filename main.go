// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/cabloy/frontbuild/cmd/frontbuild"

func main() {
	cmd.Execute()
}
