// The main package for the photosite executable.
package main

import (
	"github.com/camillebr/photosite/cmd"
)

func main() {
	cmd.Execute()
}
