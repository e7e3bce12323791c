package main

import "github.com/Pachada/ReactBase/cmd/adminctl/cmd"

func main() {
	cmd.Execute()
}
