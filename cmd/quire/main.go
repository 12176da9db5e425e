// Command quire is a personal EPUB library: import books, read them
// in the browser or the terminal, and export them to PDF.
package main

import (
	"github.com/quirelabs/quire/internal/adapters/driving/cli"
)

func main() {
	cli.Execute()
}
