package main

import "github.com/oshokin/fall-guard/cmd/fallguard/cmd"

func main() {
	cmd.Execute()
}
