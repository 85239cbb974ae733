package main

import "github.com/oshokin/fall-guard/cmd/fallguard-server/cmd"

func main() {
	cmd.Execute()
}
