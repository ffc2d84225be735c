package main

import (
	"fmt"
	"os"

	"github.com/adminhub/chat-notify-go/internal/util"
)

func main() {
	token, err := util.GenerateToken()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(token)
}
