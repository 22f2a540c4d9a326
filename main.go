package main

import "github.com/frahmantamala/dashboard-access/cmd"

func main() {
	cmd.Execute()
}
