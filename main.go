// SPDX-License-Identifier: Apache-2.0
package main

import (
	"github.com/steelwright/steelwright/cmd"
	"github.com/steelwright/steelwright/pkg/crashguard"
)

func main() {
	// Cleanup runs on panic or termination so a supervised chain process
	// never outlives the wizard.
	defer crashguard.HandlePanic()
	crashguard.WatchSignals()

	cmd.Execute()
}
