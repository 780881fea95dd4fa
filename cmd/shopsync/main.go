package main

import "github.com/dbsmedya/shopsync/cmd/shopsync/cmd"

func main() {
	cmd.Execute()
}
