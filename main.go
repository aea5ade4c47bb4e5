package main

import "github.com/maxvaer/credfuzz/cmd"

func main() {
	cmd.Execute()
}
