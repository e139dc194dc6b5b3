// SPDX-License-Identifier: MPL-2.0

// Command get-htmlayout installs the HTMLayout SDK into a working tree.
package main

import (
	"context"
	"os"

	"github.com/gohl/hlsdk/internal/cli"
)

func main() {
	app := cli.NewApp(cli.Dependencies{})
	os.Exit(cli.Execute(context.Background(), cli.NewGetCommand(app)))
}
