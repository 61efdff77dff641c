package main

import "github.com/frahmantamala/group-expenses/cmd"

func main() {
	cmd.Execute()
}
