package main

import "github.com/iksnae/nbsite/cmd"

func main() {
	cmd.Execute()
}
