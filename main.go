package main

import "github.com/worktracker75-ui/datanav/cmd"

func main() {
	cmd.Execute()
}
