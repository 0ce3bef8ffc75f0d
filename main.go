package main

import "github.com/monsefu/resplan/cmd"

func main() {
	cmd.Execute()
}
