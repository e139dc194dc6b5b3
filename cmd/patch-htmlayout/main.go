// SPDX-License-Identifier: MPL-2.0

// Command patch-htmlayout applies or restores the HTMLayout header patch.
package main

import (
	"context"
	"os"

	"github.com/gohl/hlsdk/internal/cli"
)

func main() {
	app := cli.NewApp(cli.Dependencies{})
	os.Exit(cli.Execute(context.Background(), cli.NewPatchCommand(app)))
}
