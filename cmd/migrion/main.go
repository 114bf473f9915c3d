package main

import "github.com/dbsmedya/migrion/cmd/migrion/cmd"

func main() {
	cmd.Execute()
}
