package main

import "github.com/fakeyudi/hydro/cmd"

func main() {
	cmd.Execute()
}
