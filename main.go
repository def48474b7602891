package main

import "github.com/Joachimzeelmaekers/ai-tooling/cmd"

func main() {
	cmd.Execute()
}
