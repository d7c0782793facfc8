package main

import "collection-sync/cmd"

func main() {
	cmd.Execute()
}
