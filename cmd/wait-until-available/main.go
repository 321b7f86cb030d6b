package main

import (
	"fmt"
	"net/http"
	"time"
)

// The contact endpoints require a bearer token, so a plain GET answers with
// the UNAUTHORIZED status code as soon as the service is up. Any HTTP answer
// at all means the server and its database connection are ready.
func main() {
	totalWaitTime := 0
	for {
		res, err := http.Get("http://localhost:8080/contacts")
		if err == nil {
			if res.StatusCode == http.StatusUnauthorized {
				fmt.Println(res)
				break
			} else {
				fmt.Println(res)
			}
		} else {
			fmt.Println(err)
		}
		totalWaitTime += 5
		fmt.Printf("Waiting %d seconds", totalWaitTime)
		fmt.Println()
		time.Sleep(5 * time.Second)
	}
}
