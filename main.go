package main

import "amm101ctl/cmd"

func main() {
	cmd.Execute()
}
