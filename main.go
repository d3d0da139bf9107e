package main

import (
	bearhug "github.com/synedraacus/bearhug/src"
	"github.com/synedraacus/bearhug/src/protector"
	"github.com/synedraacus/bearhug/src/util"
)

var version string = "0.1"
var revision string = "devel"

func main() {
	if err := protector.Protect(); err != nil {
		util.Exit(2)
	}
	options := bearhug.ParseOptions()
	bearhug.Run(options, version, revision)
}
