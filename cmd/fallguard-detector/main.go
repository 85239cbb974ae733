package main

import "github.com/oshokin/fall-guard/cmd/fallguard-detector/cmd"

func main() {
	cmd.Execute()
}
