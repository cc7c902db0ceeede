package main

import "github.com/arasdesign/newsletter-service/cmd"

func main() {
	cmd.Execute()
}
